package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultMaxFailedLogins = 5
	defaultLockDuration    = 30 * time.Minute
	defaultResetTTL        = 24 * time.Hour

	// resetTokenBytes gives 256 bits of entropy per reset token.
	resetTokenBytes = 32
)

// Service provides authentication, the password lifecycle and principal
// resolution over a Store. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	store  Store
	tokens *TokenService
	now    func() time.Time

	bcryptCost      int
	maxFailedLogins int
	lockDuration    time.Duration
	resetTTL        time.Duration

	// dummyHash keeps the login path doing one bcrypt compare whether or
	// not the email exists, so response timing does not enumerate accounts.
	dummyHash string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithBcryptCost overrides the password hashing work factor.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// WithLockoutPolicy sets the consecutive-failure threshold and lock window.
func WithLockoutPolicy(maxFailures int, lockFor time.Duration) ServiceOption {
	return func(s *Service) {
		if maxFailures > 0 {
			s.maxFailedLogins = maxFailures
		}
		if lockFor > 0 {
			s.lockDuration = lockFor
		}
	}
}

// WithResetTTL overrides the reset-token lifetime.
func WithResetTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	s := &Service{
		store:           store,
		tokens:          tokens,
		now:             time.Now,
		bcryptCost:      DefaultBcryptCost,
		maxFailedLogins: defaultMaxFailedLogins,
		lockDuration:    defaultLockDuration,
		resetTTL:        defaultResetTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := HashPassword(randomToken(), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// SessionTTL is the lifetime applied to issued session tokens.
func (s *Service) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

// LoginResult carries the outcome of a successful authentication.
type LoginResult struct {
	Principal *Principal
	Token     string
	ExpiresAt time.Time
}

// Login authenticates an email/password pair and issues a session token.
// Unknown email and wrong password both come back as ErrInvalidCredentials;
// a locked account fails with ErrAccountLocked regardless of the password.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	users := s.store.Users(ctx)
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = VerifyPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now().UTC()
	if user.AccountLocked {
		if user.LockedUntil != nil && user.LockedUntil.After(now) {
			return nil, ErrAccountLocked
		}
		// The lock window has elapsed; unlock before checking the password.
		if err := users.ClearLock(ctx, user.ID); err != nil {
			return nil, err
		}
		user.AccountLocked = false
		user.LockedUntil = nil
		user.FailedLoginAttempts = 0
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		attempts := user.FailedLoginAttempts + 1
		locked := attempts >= s.maxFailedLogins
		var until *time.Time
		if locked {
			t := now.Add(s.lockDuration)
			until = &t
		}
		if err := users.RecordLoginFailure(ctx, user.ID, attempts, locked, until); err != nil {
			return nil, err
		}
		if locked {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.FailedLoginAttempts = 0
	user.AccountLocked = false
	user.LockedUntil = nil
	user.LastLogin = &now

	principal, err := s.principal(ctx, user)
	if err != nil {
		return nil, err
	}
	roleName := ""
	if principal.Role != nil {
		roleName = principal.Role.Name
	}
	token, expiresAt, err := s.tokens.Issue(user, roleName)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Principal: principal, Token: token, ExpiresAt: expiresAt}, nil
}

// Resolve turns a session token into a principal with its role populated.
// An absent, malformed, expired or orphaned token yields (nil, nil): the
// request is simply unauthenticated. Only store faults surface as errors.
func (s *Service) Resolve(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil
	}
	user, err := s.store.Users(ctx).Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return s.principal(ctx, user)
}

func (s *Service) principal(ctx context.Context, user *User) (*Principal, error) {
	p := &Principal{User: user}
	if user.RoleID == "" {
		return p, nil
	}
	role, err := s.store.Roles(ctx).Find(ctx, user.RoleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return p, nil
		}
		return nil, err
	}
	p.Role = role
	return p, nil
}

// SetPassword hashes and stores a new password and clears the forced-change
// flag. Policy checks are the caller's concern.
func (s *Service) SetPassword(ctx context.Context, userID, plaintext string) error {
	hash, err := HashPassword(plaintext, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.store.Users(ctx).UpdatePassword(ctx, userID, hash)
}

// ChangePassword verifies the current password before storing the new one.
// The stored hash is untouched on any failure.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	user, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}
	return s.SetPassword(ctx, userID, newPassword)
}

// ResetGrant is the one-time result of initiating a password reset. Token is
// the plaintext secret for out-of-band delivery; it is never persisted.
type ResetGrant struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// InitiateReset generates a reset token for the target user, persists only
// its sha256 digest with an expiry, and returns the plaintext once.
// Authorization of the calling principal happens at the entry point.
func (s *Service) InitiateReset(ctx context.Context, targetUserID string) (*ResetGrant, error) {
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	users := s.store.Users(ctx)
	user, err := users.Find(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	token := randomToken()
	expiresAt := s.now().UTC().Add(s.resetTTL)
	if err := users.SetResetToken(ctx, user.ID, hashResetToken(token), expiresAt); err != nil {
		return nil, err
	}
	return &ResetGrant{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CompleteReset consumes a reset token and sets the new password. The token
// is the sole credential; every failure mode (unknown, expired, already
// used) collapses to ErrInvalidResetToken. Success is a full account
// recovery: the reset fields, the lockout state and the forced-change flag
// are all cleared in one atomic store update.
func (s *Service) CompleteReset(ctx context.Context, token, newPassword string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidResetToken
	}
	if len(newPassword) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users(ctx).ConsumeResetToken(ctx, hashResetToken(token), s.now().UTC(), hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}
	return user, nil
}

func randomToken() string {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// The process cannot do anything credential-related without a
		// working entropy source.
		panic(fmt.Sprintf("auth: read random: %v", err))
	}
	return hex.EncodeToString(buf)
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
