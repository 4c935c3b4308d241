// Package auth validates credentials, hashes passwords and issues session tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/scrypt"
)

// CookieName is the session cookie.
const CookieName = "auth_token"

// Token lifetimes.
const (
	SessionTTL  = 24 * time.Hour
	RememberTTL = 7 * 24 * time.Hour
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// scrypt parameters.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	saltLength   = 16
	keyLength    = 32
	secretLength = 32
)

// Auth errors.
var (
	ErrInvalidUsername = errors.New("username must be 3-32 characters of letters, digits, _ or -")
	ErrShortPassword   = errors.New("password must be at least 8 characters")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrBadCredentials  = errors.New("invalid username or password")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// ValidateUsername trims the name and checks its charset and length.
func ValidateUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if !usernamePattern.MatchString(u) {
		return "", ErrInvalidUsername
	}
	return u, nil
}

// ValidatePassword checks the minimum length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrShortPassword
	}
	return nil
}

// HashPassword derives a scrypt key with a fresh salt, encoded "salthex:keyhex".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return "", fmt.Errorf("deriving key: %w", err)
	}
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches a stored hash.
// Malformed hashes never match.
func VerifyPassword(password, stored string) bool {
	saltHex, keyHex, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) == 0 {
		return false
	}
	got, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

const dummyPassword = "planboard-no-such-user"

// DummyHash is a well-formed hash no account uses. Verifying against it costs
// the same as verifying a real user's password.
var DummyHash = sync.OnceValue(func() string {
	h, err := HashPassword(dummyPassword)
	if err != nil {
		return ""
	}
	return h
})

// RandomSecret returns a hex signing secret for servers started without one.
func RandomSecret() (string, error) {
	b := make([]byte, secretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type claims struct {
	User string `json:"u"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 session tokens.
type Issuer struct {
	secret []byte
	clock  clockwork.Clock
}

// NewIssuer creates an issuer. A nil clock means the real clock.
func NewIssuer(secret string, clock clockwork.Clock) *Issuer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Issuer{secret: []byte(secret), clock: clock}
}

// TTL is the token lifetime for the remember choice.
func TTL(remember bool) time.Duration {
	if remember {
		return RememberTTL
	}
	return SessionTTL
}

// Issue returns a token for username and its expiry.
func (i *Issuer) Issue(username string, remember bool) (string, time.Time, error) {
	exp := i.clock.Now().Add(TTL(remember))
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		User:             username,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}

// Validate returns the token's username, or ErrUnauthenticated when the token
// is malformed, forged or expired.
func (i *Issuer) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil || c.User == "" {
		return "", ErrUnauthenticated
	}
	return c.User, nil
}

// Username validates the session cookie of r.
func (i *Issuer) Username(r *http.Request) (string, error) {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return i.Validate(ck.Value)
}

// SessionCookie carries token. Without remember it is a browser-session
// cookie and has no Expires.
func SessionCookie(token string, exp time.Time, remember, secure bool) *http.Cookie {
	ck := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		ck.Expires = exp
	}
	return ck
}

// ClearCookie expires the session cookie.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
