package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/shopvite/shopvite-backend/internal/uow/uowtest"
	"github.com/shopvite/shopvite-backend/pkg/auth/session"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/security"
)

type fakeSession struct {
	tokens  map[string]string
	revoked []string
	next    int
}

func newFakeSession() *fakeSession {
	return &fakeSession{tokens: map[string]string{}}
}

func (f *fakeSession) Generate(ctx context.Context, userID string) (string, error) {
	f.next++
	token := "refresh-" + strings.Repeat("x", f.next)
	f.tokens[userID] = token
	return token, nil
}

func (f *fakeSession) Validate(ctx context.Context, userID, provided string) error {
	stored, ok := f.tokens[userID]
	if !ok || stored != provided {
		return session.ErrInvalidRefreshToken
	}
	return nil
}

func (f *fakeSession) Revoke(ctx context.Context, userID string) error {
	delete(f.tokens, userID)
	f.revoked = append(f.revoked, userID)
	return nil
}

type fakeResetStore struct {
	values map[string]string
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{values: map[string]string{}}
}

func (f *fakeResetStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeResetStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (f *fakeResetStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeResetStore) ResetTokenKey(userID string) string {
	return "sv:reset:" + userID
}

type fakeLimiter struct {
	counts map[string]int64
	deny   map[string]bool
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}, deny: map[string]bool{}}
}

func (f *fakeLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.counts[scope]++
	if f.deny[scope] {
		return false, f.counts[scope], nil
	}
	return f.counts[scope] <= limit, f.counts[scope], nil
}

type authFixture struct {
	svc     Service
	runner  *uowtest.Runner
	session *fakeSession
	resets  *fakeResetStore
	limiter *fakeLimiter
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "shopvite-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	fx := &authFixture{
		runner:  uowtest.NewRunner(),
		session: newFakeSession(),
		resets:  newFakeResetStore(),
		limiter: newFakeLimiter(),
	}
	svc, err := NewService(ServiceParams{
		Runner:         fx.runner,
		SessionManager: fx.session,
		ResetStore:     fx.resets,
		Limiter:        fx.limiter,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
		ResetConfig:    config.PasswordResetConfig{TokenTTL: 10 * time.Minute},
		RateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginEmailLimit:    5,
			LoginIPLimit:       20,
			RegisterWindow:     5 * time.Minute,
			RegisterEmailLimit: 3,
			RegisterIPLimit:    20,
		},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	fx.svc = svc
	return fx
}

// seedCustomer inserts an active user with the given password under the
// customer role.
func (fx *authFixture) seedCustomer(t *testing.T, email, password string) *models.User {
	t.Helper()
	role, err := fx.runner.UoW.Roles.FindByName(context.Background(), defaultCustomerRole)
	if err != nil {
		r := fx.runner.Store.SeedRole(defaultCustomerRole, []string{"cart:*", "orders:read", "profile:*"})
		role = r
	}
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := fx.runner.Store.SeedUser(email, role)
	user.PasswordHash = hash
	return user
}

func TestLoginSuccess(t *testing.T) {
	fx := newAuthFixture(t)
	user := fx.seedCustomer(t, "jo@example.com", "s3cret-pass")

	resp, err := fx.svc.Login(context.Background(), LoginRequest{Email: "Jo@Example.com", Password: "s3cret-pass"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
	if fx.runner.Store.Users[user.ID].LastLoginAt == nil {
		t.Fatal("expected last_login_at recorded")
	}
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedCustomer(t, "jo@example.com", "s3cret-pass")
	inactive := fx.seedCustomer(t, "off@example.com", "s3cret-pass")
	inactive.IsActive = false

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{"unknown email", LoginRequest{Email: "ghost@example.com", Password: "s3cret-pass"}},
		{"wrong password", LoginRequest{Email: "jo@example.com", Password: "wrong-pass"}},
		{"inactive user", LoginRequest{Email: "off@example.com", Password: "s3cret-pass"}},
	}
	for _, tc := range cases {
		_, err := fx.svc.Login(context.Background(), tc.req, "10.0.0.1")
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("%s: expected UNAUTHORIZED, got %v", tc.name, err)
		}
		if !strings.Contains(err.Error(), invalidCredentialsMessage) {
			t.Fatalf("%s: expected uniform message, got %q", tc.name, err.Error())
		}
	}
}

func TestLoginRateLimited(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedCustomer(t, "jo@example.com", "s3cret-pass")
	fx.limiter.deny["auth:login:email:jo@example.com"] = true

	_, err := fx.svc.Login(context.Background(), LoginRequest{Email: "jo@example.com", Password: "s3cret-pass"}, "10.0.0.1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) {
		t.Fatalf("expected RATE_LIMIT, got %v", err)
	}
}

func TestRefreshMintsAccessTokenOnly(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedCustomer(t, "jo@example.com", "s3cret-pass")

	login, err := fx.svc.Login(context.Background(), LoginRequest{Email: "jo@example.com", Password: "s3cret-pass"}, "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	resp, err := fx.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected a fresh access token")
	}
	// The stored refresh token is untouched.
	if err := fx.session.Validate(context.Background(), login.User.ID.String(), login.RefreshToken); err != nil {
		t.Fatalf("refresh token should remain valid: %v", err)
	}
}

func TestRefreshRejectsWrongToken(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedCustomer(t, "jo@example.com", "s3cret-pass")

	login, err := fx.svc.Login(context.Background(), LoginRequest{Email: "jo@example.com", Password: "s3cret-pass"}, "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = fx.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "not-the-stored-token",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	fx := newAuthFixture(t)
	user := fx.seedCustomer(t, "jo@example.com", "s3cret-pass")

	if _, err := fx.svc.Login(context.Background(), LoginRequest{Email: "jo@example.com", Password: "s3cret-pass"}, ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := fx.svc.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := fx.session.tokens[user.ID.String()]; ok {
		t.Fatal("expected refresh token revoked")
	}
}

func TestChangePermissionBumpsVersionAndReassigns(t *testing.T) {
	fx := newAuthFixture(t)
	admin := fx.runner.Store.SeedRole("admin", []string{"*"})
	customer := fx.runner.Store.SeedRole(defaultCustomerRole, []string{"cart:*"})
	user := fx.runner.Store.SeedUser("jo@example.com", customer)
	actor := uuid.New()

	perms := []string{"cart:*", "orders:*"}
	err := fx.svc.ChangePermission(context.Background(), actor, ChangePermissionRequest{
		RoleName:    "admin",
		UserID:      &user.ID,
		Permissions: &perms,
	})
	if err != nil {
		t.Fatalf("ChangePermission: %v", err)
	}

	if got := fx.runner.Store.Users[user.ID].RoleID; got != admin.ID {
		t.Fatalf("expected user reassigned to admin role, got %s", got)
	}
	role := fx.runner.Store.Roles[admin.ID]
	if role.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", role.Version)
	}
	if role.UpdatedBy == nil || *role.UpdatedBy != actor {
		t.Fatal("expected actor recorded")
	}
	if len(role.Permissions) != 2 {
		t.Fatalf("expected permissions replaced, got %v", role.Permissions)
	}
}

func TestChangePermissionUnknownRole(t *testing.T) {
	fx := newAuthFixture(t)
	perms := []string{"cart:*"}

	err := fx.svc.ChangePermission(context.Background(), uuid.New(), ChangePermissionRequest{
		RoleName:    "ghosts",
		Permissions: &perms,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
