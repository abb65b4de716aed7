package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zalando/go-keyring"
)

func TestLoadTokenUsesEnvVarFirst(t *testing.T) {
	t.Setenv("ESTOQUE_TOKEN", "  env-token  ")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringCalled := false
	keyringGet = func(service, user string) (string, error) {
		keyringCalled = true
		return "keyring-token", nil
	}

	got, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() unexpected error: %v", err)
	}
	if got != "env-token" {
		t.Fatalf("LoadToken() = %q, want %q", got, "env-token")
	}
	if keyringCalled {
		t.Fatal("LoadToken() called keyringGet even though ESTOQUE_TOKEN was set")
	}
}

func TestLoadTokenFallsBackToKeyring(t *testing.T) {
	t.Setenv("ESTOQUE_TOKEN", "")
	t.Setenv("ESTOQUE_KEYCHAIN_SERVICE", "svc")
	t.Setenv("ESTOQUE_KEYCHAIN_ACCOUNT", "acct")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	var gotService, gotUser string
	keyringGet = func(service, user string) (string, error) {
		gotService = service
		gotUser = user
		return "  keyring-token  ", nil
	}

	got, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() unexpected error: %v", err)
	}
	if got != "keyring-token" {
		t.Fatalf("LoadToken() = %q, want %q", got, "keyring-token")
	}
	if gotService != "svc" || gotUser != "acct" {
		t.Fatalf("keyringGet called with (%q, %q), want (%q, %q)", gotService, gotUser, "svc", "acct")
	}
}

func TestLoadTokenReturnsErrorWhenKeyringFails(t *testing.T) {
	t.Setenv("ESTOQUE_TOKEN", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		return "", errors.New("boom")
	}

	_, err := LoadToken()
	if err == nil {
		t.Fatal("LoadToken() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "failed to read keyring item") {
		t.Fatalf("LoadToken() error = %q, expected keyring read context", err.Error())
	}
}

func TestLoadTokenMissingOrEmpty(t *testing.T) {
	t.Setenv("ESTOQUE_TOKEN", "")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	for _, tc := range []struct {
		secret string
		err    error
	}{
		{"   ", nil},
		{"", keyring.ErrNotFound},
	} {
		keyringGet = func(service, user string) (string, error) {
			return tc.secret, tc.err
		}
		if _, err := LoadToken(); !errors.Is(err, ErrNoToken) {
			t.Fatalf("LoadToken() error = %v, want ErrNoToken", err)
		}
	}
}

func TestSaveSessionStoresTokenAndName(t *testing.T) {
	t.Setenv("ESTOQUE_KEYCHAIN_SERVICE", "svc")
	t.Setenv("ESTOQUE_KEYCHAIN_ACCOUNT", "acct")

	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	saved := map[string]string{}
	keyringSet = func(service, user, secret string) error {
		if service != "svc" {
			t.Fatalf("keyringSet service = %q, want svc", service)
		}
		saved[user] = secret
		return nil
	}

	if err := SaveSession("  my-token  ", " Ana "); err != nil {
		t.Fatalf("SaveSession() unexpected error: %v", err)
	}
	if saved["acct"] != "my-token" || saved["acct:user"] != "Ana" {
		t.Fatalf("SaveSession() stored %v", saved)
	}
}

func TestSaveSessionRejectsEmptyToken(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	called := false
	keyringSet = func(service, user, secret string) error {
		called = true
		return nil
	}

	err := SaveSession("   ", "x")
	if err == nil {
		t.Fatal("SaveSession() error = nil, want non-nil")
	}
	if called {
		t.Fatal("SaveSession() called keyringSet for empty token")
	}
}

func TestSaveSessionReturnsErrorWhenKeyringSetFails(t *testing.T) {
	origSet := keyringSet
	defer func() { keyringSet = origSet }()

	keyringSet = func(service, user, secret string) error {
		return errors.New("write failed")
	}

	err := SaveSession("token", "")
	if err == nil || !strings.Contains(err.Error(), "failed to store keyring item") {
		t.Fatalf("SaveSession() error = %v, expected keyring write context", err)
	}
}

func TestRemoveTokenIgnoresMissingItems(t *testing.T) {
	t.Setenv("ESTOQUE_KEYCHAIN_ACCOUNT", "acct")

	origDelete := keyringDelete
	defer func() { keyringDelete = origDelete }()

	var deleted []string
	keyringDelete = func(service, user string) error {
		deleted = append(deleted, user)
		return keyring.ErrNotFound
	}

	if err := RemoveToken(); err != nil {
		t.Fatalf("RemoveToken() unexpected error: %v", err)
	}
	if len(deleted) != 2 || deleted[0] != "acct" || deleted[1] != "acct:user" {
		t.Fatalf("deleted = %v", deleted)
	}
}

func TestRemoveTokenReportsFailure(t *testing.T) {
	origDelete := keyringDelete
	defer func() { keyringDelete = origDelete }()

	keyringDelete = func(service, user string) error { return errors.New("locked") }

	if err := RemoveToken(); err == nil {
		t.Fatal("RemoveToken() error = nil, want non-nil")
	}
}

func TestHasStoredTokenAndUserName(t *testing.T) {
	t.Setenv("ESTOQUE_KEYCHAIN_ACCOUNT", "acct")

	origGet := keyringGet
	defer func() { keyringGet = origGet }()

	keyringGet = func(service, user string) (string, error) {
		if user == "acct:user" {
			return "Ana", nil
		}
		return "tok", nil
	}
	if !HasStoredToken() {
		t.Fatal("HasStoredToken() = false, want true")
	}
	if got := LoadUserName(); got != "Ana" {
		t.Fatalf("LoadUserName() = %q, want %q", got, "Ana")
	}

	keyringGet = func(service, user string) (string, error) { return "", keyring.ErrNotFound }
	if HasStoredToken() {
		t.Fatal("HasStoredToken() = true with empty keyring")
	}
	if got := LoadUserName(); got != "" {
		t.Fatalf("LoadUserName() = %q, want empty", got)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("any-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token := signedToken(t, exp)

	got, ok := TokenExpiry(token)
	if !ok {
		t.Fatal("TokenExpiry() ok = false, want true")
	}
	if !got.Equal(exp) {
		t.Fatalf("TokenExpiry() = %v, want %v", got, exp)
	}
	if Expired(token, exp.Add(-time.Minute)) {
		t.Fatal("Expired() before exp = true")
	}
	if !Expired(token, exp) {
		t.Fatal("Expired() at exp = false")
	}
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Fatal("TokenExpiry() ok = true for opaque token")
	}
	if Expired("not-a-jwt", time.Now()) {
		t.Fatal("Expired() = true for opaque token")
	}
}
