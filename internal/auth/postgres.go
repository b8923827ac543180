package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/ids"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore  { return &userStore{db: s.db} }
func (s *PGStore) Roles(context.Context) RoleStore  { return &roleStore{db: s.db} }
func (s *PGStore) Audit(context.Context) AuditStore { return &auditStore{db: s.db} }

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `id, email, password_hash, full_name, role_id, is_active,
	must_change_password, last_login, failed_login_attempts, account_locked,
	locked_until, password_reset_token, password_reset_expires, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u          User
		roleID     sql.NullString
		lastLogin  sql.NullTime
		until      sql.NullTime
		resetToken sql.NullString
		resetExp   sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &roleID,
		&u.IsActive, &u.MustChangePassword, &lastLogin, &u.FailedLoginAttempts,
		&u.AccountLocked, &until, &resetToken, &resetExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.RoleID = roleID.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	if until.Valid {
		t := until.Time
		u.LockedUntil = &t
	}
	u.PasswordResetToken = resetToken.String
	if resetExp.Valid {
		t := resetExp.Time
		u.PasswordResetExpires = &t
	}
	return &u, nil
}

func (s *userStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, full_name, role_id, is_active, must_change_password)
		 values($1,$2,$3,$4,nullif($5,''),$6,$7)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.RoleID, u.IsActive, u.MustChangePassword,
	)
	return mapPGError(err)
}

func (s *userStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

func (s *userStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *userStore) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		update users set
			email = coalesce($2, email),
			full_name = coalesce($3, full_name),
			password_hash = coalesce($4, password_hash),
			role_id = coalesce(nullif($5,''), role_id),
			is_active = coalesce($6, is_active),
			must_change_password = coalesce($7, must_change_password),
			updated_at = now()
		where id = $1
		returning `+userColumns,
		id, upd.Email, upd.FullName, upd.Password, orEmpty(upd.RoleID),
		upd.IsActive, upd.MustChangePassword,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapPGError(err)
	}
	return u, nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=$2, must_change_password=false, updated_at=now() where id=$1`,
		userID, passwordHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_reset_token=$2, password_reset_expires=$3, updated_at=now() where id=$1`,
		userID, tokenHash, expires)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeResetToken is the serialization point for racing reset completions:
// the conditional update matches at most once per issued token.
func (s *userStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		update users set
			password_hash = $2,
			password_reset_token = null,
			password_reset_expires = null,
			failed_login_attempts = 0,
			account_locked = false,
			locked_until = null,
			must_change_password = false,
			updated_at = now()
		where password_reset_token = $1 and password_reset_expires > $3
		returning `+userColumns,
		tokenHash, passwordHash, now,
	)
	return scanUser(row)
}

func (s *userStore) RecordLoginFailure(ctx context.Context, userID string, attempts int, locked bool, lockedUntil *time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update users set failed_login_attempts=$2, account_locked=$3, locked_until=$4, updated_at=now() where id=$1`,
		userID, attempts, locked, lockedUntil)
	return err
}

func (s *userStore) RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update users set failed_login_attempts=0, account_locked=false, locked_until=null, last_login=$2, updated_at=now() where id=$1`,
		userID, at)
	return err
}

func (s *userStore) ClearLock(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`update users set failed_login_attempts=0, account_locked=false, locked_until=null, updated_at=now() where id=$1`,
		userID)
	return err
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Role store ---------------------------------------------------------------

type roleStore struct{ db *sql.DB }

const roleColumns = `id, name, description, permissions, is_super_role, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (*Role, error) {
	var (
		role  Role
		perms []byte
	)
	err := row.Scan(&role.ID, &role.Name, &role.Description, &perms,
		&role.IsSuperRole, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(perms, &role.Permissions); err != nil {
		return nil, err
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return &role, nil
}

func (s *roleStore) Create(ctx context.Context, role *Role) error {
	if role.ID == "" {
		role.ID = ids.New()
	}
	perms, _ := json.Marshal(role.Permissions)
	_, err := s.db.ExecContext(ctx,
		`insert into roles(id, name, description, permissions, is_super_role) values($1,$2,$3,$4,$5)`,
		role.ID, role.Name, role.Description, perms, role.IsSuperRole,
	)
	return mapPGError(err)
}

func (s *roleStore) Find(ctx context.Context, id string) (*Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where id=$1`, id)
	return scanRole(row)
}

func (s *roleStore) FindByName(ctx context.Context, name string) (*Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where name=$1`, name)
	return scanRole(row)
}

func (s *roleStore) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+roleColumns+` from roles order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *roleStore) Update(ctx context.Context, id string, upd RoleUpdate) (*Role, error) {
	var perms []byte
	if upd.Permissions != nil {
		perms, _ = json.Marshal(upd.Permissions)
	}
	row := s.db.QueryRowContext(ctx, `
		update roles set
			name = coalesce($2, name),
			description = coalesce($3, description),
			permissions = coalesce($4, permissions),
			is_super_role = coalesce($5, is_super_role),
			updated_at = now()
		where id = $1
		returning `+roleColumns,
		id, upd.Name, upd.Description, perms, upd.IsSuperRole,
	)
	role, err := scanRole(row)
	if err != nil {
		return nil, mapPGError(err)
	}
	return role, nil
}

func (s *roleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from roles where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Audit store --------------------------------------------------------------

type auditStore struct{ db *sql.DB }

func (s *auditStore) Append(ctx context.Context, entry *AuditEntry) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	details, _ := json.Marshal(entry.Details)
	_, err := s.db.ExecContext(ctx,
		`insert into audit_log(id, occurred_at, actor_id, actor_email, action, details, ip_address)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		entry.ID, entry.OccurredAt, entry.ActorID, entry.ActorEmail,
		entry.Action, details, entry.IPAddress,
	)
	return err
}

// Recent returns the newest entries first. The actor's display name comes
// from a left join so entries survive deletion of the user record; the
// stored email snapshot is the fallback identity.
func (s *auditStore) Recent(ctx context.Context, limit int) ([]*AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select a.id, a.occurred_at, a.actor_id, a.actor_email, a.action,
		       a.details, a.ip_address, coalesce(u.full_name, '')
		from audit_log a
		left join users u on u.id = a.actor_id
		order by a.occurred_at desc
		limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var (
			e       AuditEntry
			actorID sql.NullString
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.OccurredAt, &actorID, &e.ActorEmail,
			&e.Action, &details, &e.IPAddress, &e.ActorName); err != nil {
			return nil, err
		}
		if actorID.Valid {
			id := actorID.String
			e.ActorID = &id
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &e.Details)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
