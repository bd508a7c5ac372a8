package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = 7 * 24 * time.Hour
	CookieName      = "dim_session"
)

var (
	ErrMissing              = errors.New("missing credentials")
	ErrInvalid              = errors.New("invalid token")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUsernameNotAvailable = errors.New("username not available")
)

// Claims identify a user. They serialize as {userId, roles, iat, exp}.
type Claims struct {
	UserID int64    `json:"userId"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authenticator issues and verifies HS256 tokens
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	cookie *CookieCodec
	now    func() time.Time
}

type Option func(*Authenticator)

func WithTokenTTL(ttl time.Duration) Option {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithCookieCodec lets requests authenticate with an encrypted session cookie
func WithCookieCodec(c *CookieCodec) Option {
	return func(a *Authenticator) {
		a.cookie = c
	}
}

func New(secret []byte, opts ...Option) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty signing secret", ErrInvalid)
	}
	a := &Authenticator{secret: secret, ttl: DefaultTokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Issue signs a token for the user
func (a *Authenticator) Issue(userID int64, roles []string) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify checks the signature and expiry of token
func (a *Authenticator) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// CookiesEnabled reports whether a cookie codec is configured
func (a *Authenticator) CookiesEnabled() bool {
	return a.cookie != nil
}

// SessionCookie wraps a token in an encrypted cookie
func (a *Authenticator) SessionCookie(token string) (*http.Cookie, error) {
	if a.cookie == nil {
		return nil, errors.New("no cookie codec configured")
	}
	value, err := a.cookie.Encode([]byte(token))
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.ttl.Seconds()),
	}, nil
}

// FromRequest verifies the bearer token, or the session cookie when there is no Authorization header
func (a *Authenticator) FromRequest(r *http.Request) (*Claims, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return nil, ErrInvalid
		}
		return a.Verify(strings.TrimSpace(token))
	}

	if a.cookie == nil {
		return nil, ErrMissing
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrMissing
	}
	token, err := a.cookie.Decode(c.Value)
	if err != nil {
		return nil, err
	}
	return a.Verify(string(token))
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns ErrInvalidCredentials when password does not match hash
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

type ctxKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromCtx returns the claims of the authenticated request
func FromCtx(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}
