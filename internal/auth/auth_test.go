package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/db"
	"github.com/zulandar/chargeyard/internal/models"
	"gorm.io/gorm"
)

const testSecret = "test-secret-0123456789"

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	return gdb
}

func testService(t *testing.T) *Service {
	t.Helper()
	return NewService(testDB(t), Options{Secret: testSecret, TTL: time.Hour})
}

func signUp(t *testing.T, s *Service, email string) *models.Profile {
	t.Helper()
	p, err := s.SignUp(context.Background(), Credentials{Email: email, Password: "correct-horse", FullName: "Test User"})
	if err != nil {
		t.Fatalf("SignUp(%s): %v", email, err)
	}
	return p
}

func TestCanWrite(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{models.RoleAdmin, true},
		{models.RoleStaff, false},
		{models.RoleClient, false},
		{"", false},
		{"root", false},
	}
	for _, tt := range tests {
		if got := CanWrite(tt.role); got != tt.want {
			t.Errorf("CanWrite(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestRequireWrite(t *testing.T) {
	if err := RequireWrite(&models.Profile{Role: models.RoleAdmin}); err != nil {
		t.Errorf("admin: %v", err)
	}
	for _, p := range []*models.Profile{nil, {Role: models.RoleStaff}, {Role: models.RoleClient}} {
		if err := RequireWrite(p); !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("RequireWrite(%+v) = %v, want ErrForbidden", p, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword("wrong", hash) {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	p := &models.Profile{ID: "u-1", Email: "a@example.com", Role: models.RoleStaff}
	tok, claims, err := IssueToken(testSecret, p, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	got, err := ParseToken(testSecret, tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got.Subject != "u-1" || got.Role != models.RoleStaff || got.ID != claims.ID {
		t.Errorf("claims = %+v", got)
	}
	if _, err := ParseToken("another-secret-0000000", tok); err == nil {
		t.Error("ParseToken accepted a token signed with another secret")
	}
}

func TestTokenExpired(t *testing.T) {
	p := &models.Profile{ID: "u-1", Email: "a@example.com", Role: models.RoleAdmin}
	tok, _, err := IssueToken(testSecret, p, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken(testSecret, tok); err == nil {
		t.Error("ParseToken accepted an expired token")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def", "abc.def", false},
		{"bearer abc", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, err := ExtractToken(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, %v", tt.header, got, err)
		}
	}
}

func TestSignUp_DefaultsToClient(t *testing.T) {
	s := testService(t)
	p := signUp(t, s, "  New.User@Example.com ")
	if p.Role != models.RoleClient {
		t.Errorf("Role = %q, want client", p.Role)
	}
	if p.Email != "new.user@example.com" {
		t.Errorf("Email = %q, want normalized", p.Email)
	}
	if p.PasswordHash == "" || p.PasswordHash == "correct-horse" {
		t.Error("password not hashed")
	}
}

func TestSignUp_Validation(t *testing.T) {
	s := testService(t)
	signUp(t, s, "taken@example.com")
	tests := []struct {
		name string
		c    Credentials
	}{
		{"bad email", Credentials{Email: "nope", Password: "long-enough"}},
		{"short password", Credentials{Email: "x@example.com", Password: "short"}},
		{"duplicate", Credentials{Email: "TAKEN@example.com", Password: "long-enough"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SignUp(context.Background(), tt.c); !errors.Is(err, apperr.ErrInvalid) {
				t.Errorf("SignUp err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSignInAuthenticateSignOut(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	p := signUp(t, s, "user@example.com")

	if _, err := s.SignIn(ctx, "user@example.com", "wrong-password"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SignIn wrong password err = %v, want ErrUnauthorized", err)
	}
	if _, err := s.SignIn(ctx, "ghost@example.com", "correct-horse"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SignIn unknown user err = %v, want ErrUnauthorized", err)
	}

	tok, err := s.SignIn(ctx, "USER@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	got, err := s.Authenticate(ctx, tok.Value)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("Authenticate ID = %s, want %s", got.ID, p.ID)
	}

	if err := s.SignOut(ctx, tok.Value); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := s.Authenticate(ctx, tok.Value); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate after sign-out err = %v, want ErrUnauthorized", err)
	}
	if _, err := s.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate garbage err = %v, want ErrUnauthorized", err)
	}
}

func TestRefresh_RevokesOldToken(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	signUp(t, s, "user@example.com")
	old, err := s.SignIn(ctx, "user@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	fresh, err := s.Refresh(ctx, old.Value)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := s.Authenticate(ctx, fresh.Value); err != nil {
		t.Errorf("Authenticate fresh token: %v", err)
	}
	if _, err := s.Authenticate(ctx, old.Value); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("old token still valid: %v", err)
	}
}

func TestUpdateRole(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	user := signUp(t, s, "user@example.com")
	admin := &models.Profile{ID: "admin-1", Role: models.RoleAdmin}

	if _, err := s.UpdateRole(ctx, user, user.ID, models.RoleAdmin); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("client promoting self err = %v, want ErrForbidden", err)
	}
	if _, err := s.UpdateRole(ctx, admin, user.ID, "overlord"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad role err = %v, want ErrInvalid", err)
	}
	if _, err := s.UpdateRole(ctx, admin, "missing", models.RoleStaff); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing user err = %v, want ErrNotFound", err)
	}

	got, err := s.UpdateRole(ctx, admin, user.ID, models.RoleStaff)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if got.Role != models.RoleStaff {
		t.Errorf("Role = %q, want staff", got.Role)
	}
}

func TestRoleChangeAppliesToLiveToken(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	user := signUp(t, s, "user@example.com")
	tok, err := s.SignIn(ctx, "user@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := s.UpdateRole(ctx, &models.Profile{ID: "a", Role: models.RoleAdmin}, user.ID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	got, err := s.Authenticate(ctx, tok.Value)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !CanWrite(got.Role) {
		t.Errorf("role after promotion = %q, want admin", got.Role)
	}
}

func TestListUsers(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	signUp(t, s, "b@example.com")
	signUp(t, s, "a@example.com")

	if _, err := s.ListUsers(ctx, &models.Profile{Role: models.RoleStaff}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("staff ListUsers err = %v, want ErrForbidden", err)
	}
	users, err := s.ListUsers(ctx, &models.Profile{Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0].Email != "a@example.com" {
		t.Errorf("users = %+v, want a@ then b@", users)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	s := testService(t)
	ctx := context.Background()
	c := Credentials{Email: "root@example.com", Password: "first-password", FullName: "Root"}
	if err := s.EnsureAdmin(ctx, c); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	c.Password = "second-password"
	if err := s.EnsureAdmin(ctx, c); err != nil {
		t.Fatalf("EnsureAdmin again: %v", err)
	}
	tok, err := s.SignIn(ctx, "root@example.com", "second-password")
	if err != nil {
		t.Fatalf("SignIn with refreshed password: %v", err)
	}
	if tok.Profile.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want admin", tok.Profile.Role)
	}
}

func TestDBRevoker_Purge(t *testing.T) {
	r := NewDBRevoker(testDB(t))
	ctx := context.Background()
	now := time.Now()
	if err := r.Revoke(ctx, "expired", now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := r.Revoke(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := r.Revoke(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Errorf("revoking twice: %v", err)
	}

	n, err := r.Purge(ctx, now)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if ok, _ := r.IsRevoked(ctx, "live"); !ok {
		t.Error("live revocation was purged")
	}
	if ok, _ := r.IsRevoked(ctx, "expired"); ok {
		t.Error("expired revocation survived purge")
	}
}

func TestValidateSchedule(t *testing.T) {
	if err := ValidateSchedule("0 * * * *"); err != nil {
		t.Errorf("hourly: %v", err)
	}
	if err := ValidateSchedule("every hour"); err == nil {
		t.Error("expected error for bad schedule")
	}
}

func TestNextCronDuration(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	if got := nextCronDuration("0 * * * *", now); got != 30*time.Minute {
		t.Errorf("next = %s, want 30m", got)
	}
	if got := nextCronDuration("bogus", now); got != 0 {
		t.Errorf("bogus schedule = %s, want 0", got)
	}
}

func TestRunPurge_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewDBRevoker(testDB(t))
	done := make(chan error, 1)
	go func() { done <- RunPurge(ctx, r, "0 0 1 1 *", nil) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunPurge: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunPurge did not stop")
	}
}

func TestNotifier(t *testing.T) {
	n := NewNotifier()
	ch, unsub := n.Subscribe()
	n.Publish(Event{Type: EventSignedIn, UserID: "u"})
	select {
	case ev := <-ch:
		if ev.Type != EventSignedIn || ev.UserID != "u" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("no event delivered")
	}
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Error("channel open after unsubscribe")
	}
	n.Publish(Event{Type: EventSignedOut})
}
