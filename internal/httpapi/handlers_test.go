package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/audit"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/auth"
	"github.com/HossanaWebsite/hcsem-v-2.0-sub001/internal/ids"
)

// stubStore is a minimal in-memory auth.Store for end-to-end handler tests.
type stubStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
	roles map[string]*auth.Role
	audit []*auth.AuditEntry
}

func newStubStore() *stubStore {
	return &stubStore{
		users: make(map[string]*auth.User),
		roles: make(map[string]*auth.Role),
	}
}

func (s *stubStore) Users(context.Context) auth.UserStore  { return (*stubUsers)(s) }
func (s *stubStore) Roles(context.Context) auth.RoleStore  { return (*stubRoles)(s) }
func (s *stubStore) Audit(context.Context) auth.AuditStore { return (*stubAudit)(s) }

type stubUsers stubStore

func (s *stubUsers) Create(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return auth.ErrAlreadyExists
		}
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *stubUsers) Find(_ context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *stubUsers) List(_ context.Context) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auth.User
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubUsers) Update(_ context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Password != nil {
		u.PasswordHash = *upd.Password
	}
	if upd.RoleID != nil {
		u.RoleID = *upd.RoleID
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.MustChangePassword != nil {
		u.MustChangePassword = *upd.MustChangePassword
	}
	cp := *u
	return &cp, nil
}

func (s *stubUsers) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.MustChangePassword = false
	return nil
}

func (s *stubUsers) SetResetToken(_ context.Context, userID, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	u.PasswordResetToken = tokenHash
	exp := expires
	u.PasswordResetExpires = &exp
	return nil
}

func (s *stubUsers) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PasswordResetToken != tokenHash || u.PasswordResetToken == "" {
			continue
		}
		if u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
			continue
		}
		u.PasswordHash = passwordHash
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
		u.FailedLoginAttempts = 0
		u.AccountLocked = false
		u.LockedUntil = nil
		u.MustChangePassword = false
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrNotFound
}

func (s *stubUsers) RecordLoginFailure(_ context.Context, userID string, attempts int, locked bool, lockedUntil *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.FailedLoginAttempts = attempts
		u.AccountLocked = locked
		u.LockedUntil = lockedUntil
	}
	return nil
}

func (s *stubUsers) RecordLoginSuccess(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.FailedLoginAttempts = 0
		u.AccountLocked = false
		u.LockedUntil = nil
		t := at
		u.LastLogin = &t
	}
	return nil
}

func (s *stubUsers) ClearLock(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.FailedLoginAttempts = 0
		u.AccountLocked = false
		u.LockedUntil = nil
	}
	return nil
}

type stubRoles stubStore

func (s *stubRoles) Create(_ context.Context, role *auth.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return auth.ErrAlreadyExists
		}
	}
	if role.ID == "" {
		role.ID = ids.New()
	}
	cp := *role
	s.roles[role.ID] = &cp
	return nil
}

func (s *stubRoles) Find(_ context.Context, id string) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (s *stubRoles) FindByName(_ context.Context, name string) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range s.roles {
		if role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *stubRoles) List(_ context.Context) ([]*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auth.Role
	for _, role := range s.roles {
		cp := *role
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubRoles) Update(_ context.Context, id string, upd auth.RoleUpdate) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Name != nil {
		role.Name = *upd.Name
	}
	if upd.Description != nil {
		role.Description = *upd.Description
	}
	if upd.Permissions != nil {
		role.Permissions = upd.Permissions
	}
	if upd.IsSuperRole != nil {
		role.IsSuperRole = *upd.IsSuperRole
	}
	cp := *role
	return &cp, nil
}

func (s *stubRoles) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

type stubAudit stubStore

func (s *stubAudit) Append(_ context.Context, entry *auth.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	cp := *entry
	s.audit = append(s.audit, &cp)
	return nil
}

func (s *stubAudit) Recent(_ context.Context, limit int) ([]*auth.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auth.AuditEntry
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.audit[i]
		out = append(out, &cp)
	}
	return out, nil
}

// ---------------------------------------------------------------------------

type apiFixture struct {
	api      *API
	handler  http.Handler
	store    *stubStore
	recorder *audit.Recorder
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := newStubStore()
	tokens, err := auth.NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc, err := auth.NewService(store, tokens, auth.WithBcryptCost(4))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	recorder := audit.NewRecorder(store.Audit(context.Background()))
	t.Cleanup(recorder.Close)

	api := New(svc, recorder, ReadyProbe{}, Config{
		Version: "test",
		BaseURL: "http://localhost:3000",
	})

	ctx := context.Background()
	adminRole := &auth.Role{Name: "Admin", IsSuperRole: true}
	memberRole := &auth.Role{Name: "Member", Permissions: []string{}}
	for _, role := range []*auth.Role{adminRole, memberRole} {
		if err := store.Roles(ctx).Create(ctx, role); err != nil {
			t.Fatalf("create role: %v", err)
		}
	}
	seed := []struct {
		email, name, roleID string
	}{
		{"admin@example.org", "Admin One", adminRole.ID},
		{"member@example.org", "Member One", memberRole.ID},
	}
	for _, u := range seed {
		if _, err := svc.CreateUser(ctx, auth.CreateUserInput{
			Email:    u.email,
			Password: "secret123",
			FullName: u.name,
			RoleID:   u.roleID,
		}); err != nil {
			t.Fatalf("create user %s: %v", u.email, err)
		}
	}

	return &apiFixture{api: api, handler: api.Handler(), store: store, recorder: recorder}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": "secret123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("login %s: no session cookie", email)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestLoginSetsSessionCookie(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@example.org", "password": "secret123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode || cookie.Path != "/" {
		t.Fatalf("cookie attributes: %+v", cookie)
	}
	if want := int(auth.DefaultSessionTTL / time.Second); cookie.MaxAge != want {
		t.Fatalf("cookie MaxAge = %d, want %d", cookie.MaxAge, want)
	}

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	if user["email"] != "admin@example.org" || user["role"] != "Admin" {
		t.Fatalf("user = %v", user)
	}
}

func TestSessionCookieLifetimeTracksTokenTTL(t *testing.T) {
	// Pin the auth clocks far in the past: a MaxAge computed from
	// time-until-expiry would come out hugely negative and kill the
	// cookie on arrival. It must track the session lifetime instead.
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return past }

	store := newStubStore()
	tokens, err := auth.NewTokenService("test-secret", auth.WithTokenClock(clock))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc, err := auth.NewService(store, tokens, auth.WithBcryptCost(4), auth.WithClock(clock))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	recorder := audit.NewRecorder(store.Audit(context.Background()))
	t.Cleanup(recorder.Close)
	api := New(svc, recorder, ReadyProbe{}, Config{BaseURL: "http://localhost:3000"})

	ctx := context.Background()
	role := &auth.Role{Name: "Member", Permissions: []string{}}
	if err := store.Roles(ctx).Create(ctx, role); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := svc.CreateUser(ctx, auth.CreateUserInput{
		Email:    "member@example.org",
		Password: "secret123",
		FullName: "Member One",
		RoleID:   role.ID,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	f := &apiFixture{api: api, handler: api.Handler(), store: store, recorder: recorder}
	cookie := f.login(t, "member@example.org")
	if want := int(auth.DefaultSessionTTL / time.Second); cookie.MaxAge != want {
		t.Fatalf("cookie MaxAge = %d, want %d", cookie.MaxAge, want)
	}
}

func TestLoginFailureIsGeneric(t *testing.T) {
	f := newAPIFixture(t)

	// Unknown account and wrong password return the identical response.
	wrongPass := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@example.org", "password": "nope",
	}, nil)
	unknown := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ghost@example.org", "password": "nope",
	}, nil)

	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d / %d", wrongPass.Code, unknown.Code)
	}
	if decodeBody(t, wrongPass)["error"] != decodeBody(t, unknown)["error"] {
		t.Fatal("error messages differ between unknown email and wrong password")
	}
}

func TestMe(t *testing.T) {
	f := newAPIFixture(t)

	if rec := f.do(t, http.MethodGet, "/api/auth/me", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me: status = %d", rec.Code)
	}

	cookie := f.login(t, "member@example.org")
	rec := f.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["fullName"] != "Member One" {
		t.Fatalf("user = %v", user)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.login(t, "member@example.org")

	rec := f.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.MaxAge >= 0 {
			t.Fatalf("cookie not expired: %+v", c)
		}
	}
}

func TestChangePassword(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.login(t, "member@example.org")

	rec := f.do(t, http.MethodPut, "/api/change-password", map[string]string{
		"currentPassword": "secret123", "newPassword": "abc12",
	}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password: status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/api/change-password", map[string]string{
		"currentPassword": "wrong", "newPassword": "abc123",
	}, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current: status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/api/change-password", map[string]string{
		"currentPassword": "secret123", "newPassword": "abc123",
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestUsersRequireManagePermission(t *testing.T) {
	f := newAPIFixture(t)

	if rec := f.do(t, http.MethodGet, "/api/users", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d", rec.Code)
	}
	member := f.login(t, "member@example.org")
	if rec := f.do(t, http.MethodGet, "/api/users", nil, member); rec.Code != http.StatusForbidden {
		t.Fatalf("member: status = %d", rec.Code)
	}

	admin := f.login(t, "admin@example.org")
	rec := f.do(t, http.MethodGet, "/api/users", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d body %s", rec.Code, rec.Body.String())
	}
	users := decodeBody(t, rec)["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	// Password material never leaks through the listing.
	raw := rec.Body.String()
	for _, field := range []string{"passwordHash", "password_hash", "$2a$"} {
		if bytes.Contains([]byte(raw), []byte(field)) {
			t.Fatalf("response leaks %q: %s", field, raw)
		}
	}
}

func TestUserLifecycleAndAudit(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.login(t, "admin@example.org")

	rec := f.do(t, http.MethodPost, "/api/users", map[string]any{
		"email": "new@example.org", "password": "secret123", "fullName": "New Person",
	}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body %s", rec.Code, rec.Body.String())
	}
	userID := decodeBody(t, rec)["user"].(map[string]any)["id"].(string)

	rec = f.do(t, http.MethodPut, "/api/users?id="+userID, map[string]any{
		"fullName": "Renamed Person",
	}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodDelete, "/api/users?id="+userID, nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d body %s", rec.Code, rec.Body.String())
	}

	// Drain the async writer so every entry is visible.
	f.recorder.Close()

	// The audit trail records each mutation with the acting admin.
	logs := f.do(t, http.MethodGet, "/api/logs", nil, admin)
	if logs.Code != http.StatusOK {
		t.Fatalf("logs: status = %d", logs.Code)
	}
	entries := decodeBody(t, logs)["logs"].([]any)
	actions := make(map[string]bool)
	for _, e := range entries {
		entry := e.(map[string]any)
		actions[entry["action"].(string)] = true
		if entry["actorName"] == "" {
			t.Fatalf("entry without actor name: %v", entry)
		}
	}
	for _, want := range []string{audit.ActionCreateUser, audit.ActionUpdateUser, audit.ActionDeleteUser} {
		if !actions[want] {
			t.Fatalf("missing %s in %v", want, actions)
		}
	}
}

func TestCannotDeleteOwnAccount(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.login(t, "admin@example.org")

	me := f.do(t, http.MethodGet, "/api/auth/me", nil, admin)
	id := decodeBody(t, me)["user"].(map[string]any)["id"].(string)

	rec := f.do(t, http.MethodDelete, "/api/users?id="+id, nil, admin)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRolesAcceptUserManagers(t *testing.T) {
	f := newAPIFixture(t)

	ctx := context.Background()
	registrar := &auth.Role{Name: "Registrar", Permissions: []string{auth.PermManageUsers}}
	if err := f.store.Roles(ctx).Create(ctx, registrar); err != nil {
		t.Fatalf("create role: %v", err)
	}
	svcUser := &auth.User{Email: "registrar@example.org", FullName: "Registrar One", RoleID: registrar.ID, IsActive: true}
	hash, err := auth.HashPassword("secret123", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svcUser.PasswordHash = hash
	if err := f.store.Users(ctx).Create(ctx, svcUser); err != nil {
		t.Fatalf("create user: %v", err)
	}

	cookie := f.login(t, "registrar@example.org")
	rec := f.do(t, http.MethodGet, "/api/roles", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["availablePermissions"]; !ok {
		t.Fatal("availablePermissions missing")
	}

	member := f.login(t, "member@example.org")
	if rec := f.do(t, http.MethodGet, "/api/roles", nil, member); rec.Code != http.StatusForbidden {
		t.Fatalf("member roles: status = %d", rec.Code)
	}
}

func TestPasswordResetEndToEnd(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.login(t, "admin@example.org")

	me := f.do(t, http.MethodGet, "/api/auth/me", nil, f.login(t, "member@example.org"))
	memberID := decodeBody(t, me)["user"].(map[string]any)["id"].(string)

	rec := f.do(t, http.MethodPost, "/api/password-reset", map[string]string{
		"userId": memberID,
	}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("initiate: status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token := body["resetToken"].(string)
	if token == "" {
		t.Fatal("empty reset token")
	}
	if url := body["resetUrl"].(string); url != "http://localhost:3000/reset-password?token="+token {
		t.Fatalf("resetUrl = %q", url)
	}

	// Anonymous completion with the plaintext token.
	rec = f.do(t, http.MethodPost, "/api/reset-password", map[string]string{
		"token": token, "newPassword": "freshpass1",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d body %s", rec.Code, rec.Body.String())
	}

	// The token is spent; a replay gets the generic rejection.
	rec = f.do(t, http.MethodPost, "/api/reset-password", map[string]string{
		"token": token, "newPassword": "anotherpass1",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("replay: status = %d body %s", rec.Code, rec.Body.String())
	}

	login := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "member@example.org", "password": "freshpass1",
	}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login with new password: status = %d", login.Code)
	}
}

func TestInitiateResetRequiresManageUsers(t *testing.T) {
	f := newAPIFixture(t)
	member := f.login(t, "member@example.org")

	rec := f.do(t, http.MethodPost, "/api/password-reset", map[string]string{
		"userId": "whatever",
	}, member)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestLogsLimit(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.login(t, "admin@example.org")

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		if err := f.store.Audit(ctx).Append(ctx, &auth.AuditEntry{
			Action:     audit.ActionUpdateUser,
			ActorName:  "seed",
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/logs", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := len(decodeBody(t, rec)["logs"].([]any)); got != defaultLogLimit {
		t.Fatalf("default limit: got %d entries, want %d", got, defaultLogLimit)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/logs?limit=%d", 10), nil, admin)
	if got := len(decodeBody(t, rec)["logs"].([]any)); got != 10 {
		t.Fatalf("explicit limit: got %d entries, want 10", got)
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["status"] != "ok" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
