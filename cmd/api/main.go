package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/audit"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/httpapi"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/obs"
)

var (
	version = "2.0.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("HCSEM_PG_DSN")
	if dsn == "" {
		log.Fatal("HCSEM_PG_DSN is required")
	}
	secret := os.Getenv("HCSEM_AUTH_SECRET")
	if secret == "" {
		log.Fatal("HCSEM_AUTH_SECRET is required")
	}
	addr := os.Getenv("HCSEM_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	baseURL := os.Getenv("HCSEM_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	env := strings.ToLower(os.Getenv("HCSEM_ENV"))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	store := auth.NewPGStore(db)
	svc, err := auth.NewService(store, tokens)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	recorder := audit.NewRecorder(store.Audit(context.Background()))

	api := httpapi.New(svc, recorder, httpapi.ReadyProbe{DB: db}, httpapi.Config{
		Version:       version,
		BaseURL:       baseURL,
		SecureCookies: env == "production",
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting hcsem-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	recorder.Close()
	_ = db.Close()
	log.Println("Stopped")
}
