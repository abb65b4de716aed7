package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zalando/go-keyring"

	"github.com/lachiem1/estoque/internal/config"
)

// ErrNoToken means neither the environment nor the keyring holds a token.
var ErrNoToken = errors.New("no API token stored; run `estoque auth login`")

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

const userSuffix = ":user"

// LoadToken loads the API access token.
//
// Order of precedence:
// 1) ESTOQUE_TOKEN environment variable.
// 2) System keyring item referenced by service/account.
func LoadToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("ESTOQUE_TOKEN")); token != "" {
		return token, nil
	}

	token, err := loadFromKeyring()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SaveSession stores the token and the display name returned by login.
func SaveSession(token, userName string) error {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return errors.New("API token cannot be empty")
	}

	service, account := keyringItem()
	if err := keyringSet(service, account, trimmed); err != nil {
		return fmt.Errorf(
			"failed to store keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}
	if err := keyringSet(service, account+userSuffix, strings.TrimSpace(userName)); err != nil {
		return fmt.Errorf("failed to store user name: %w", err)
	}
	return nil
}

// LoadUserName returns the display name saved at login, or "".
func LoadUserName() string {
	service, account := keyringItem()
	name, err := keyringGet(service, account+userSuffix)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

// HasStoredToken reports whether the keyring holds a token. The
// environment variable is not consulted.
func HasStoredToken() bool {
	token, err := loadFromKeyring()
	return err == nil && token != ""
}

// RemoveToken deletes the stored session. Missing items are not an error.
func RemoveToken() error {
	service, account := keyringItem()
	for _, acct := range []string{account, account + userSuffix} {
		if err := keyringDelete(service, acct); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf(
				"failed to delete keyring item service=%q account=%q: %w",
				service,
				acct,
				err,
			)
		}
	}
	return nil
}

// TokenExpiry reads the exp claim without verifying the signature; the API
// does the verification. ok is false for opaque tokens or tokens without exp.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether token carries an exp claim at or before now.
func Expired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && !now.Before(exp)
}

func loadFromKeyring() (string, error) {
	service, account := keyringItem()

	secret, err := keyringGet(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf(
			"failed to read keyring item service=%q account=%q: %w",
			service,
			account,
			err,
		)
	}

	return strings.TrimSpace(secret), nil
}

func keyringItem() (string, string) {
	return envOrDefault("ESTOQUE_KEYCHAIN_SERVICE", config.DefaultKeychainService),
		envOrDefault("ESTOQUE_KEYCHAIN_ACCOUNT", config.DefaultKeychainAccount)
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
