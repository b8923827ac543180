package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("HCSEM_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "ops/migrations/sql", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "ops/migrations/seeds", "Path to SQL seeds")
		adminEmail     = flag.String("admin-email", "admin@hcsem.org", "Bootstrap administrator email (seed-admin)")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or HCSEM_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|seed-admin|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	runner := migrate.NewRunner(db, os.DirFS(*migrationsPath), os.DirFS(*seedsPath))

	switch flag.Arg(0) {
	case "up":
		var ran []string
		ran, err = runner.Up(ctx)
		for _, name := range ran {
			fmt.Println("applied", name)
		}
	case "down":
		var name string
		name, err = runner.Down(ctx)
		if err == nil {
			fmt.Println("rolled back", name)
		}
	case "seed":
		var ran []string
		ran, err = runner.Seed(ctx)
		for _, name := range ran {
			fmt.Println("seeded", name)
		}
	case "seed-admin":
		password := os.Getenv("HCSEM_BOOTSTRAP_PASSWORD")
		if password == "" {
			log.Fatal("missing HCSEM_BOOTSTRAP_PASSWORD")
		}
		var admin *auth.User
		admin, err = auth.EnsureAdmin(ctx, auth.NewPGStore(db), *adminEmail, password, "Admin", auth.DefaultBcryptCost)
		if err == nil {
			fmt.Println("administrator ready:", admin.Email)
		}
	case "status":
		var history []string
		history, err = runner.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}
