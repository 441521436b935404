package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config is the process-wide signing setup. It is built once at start-up and
// never mutated, so a Manager is safe for concurrent use.
type Config struct {
	Secret    string
	Algorithm string
	AccessTTL time.Duration
}

type Claims struct {
	jwt.RegisteredClaims
}

type Manager struct {
	secret    []byte
	method    jwt.SigningMethod
	accessTTL time.Duration
	now       func() time.Time
}

type Option func(*Manager)

// WithClock overrides time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}

	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", alg)
	}

	if cfg.AccessTTL <= 0 {
		return nil, errors.New("auth: access ttl must be positive")
	}

	m := &Manager{
		secret:    []byte(cfg.Secret),
		method:    method,
		accessTTL: cfg.AccessTTL,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// Issue signs a token for subject that expires after the default TTL.
func (m *Manager) Issue(subject string) (string, error) {
	return m.IssueWithTTL(subject, m.accessTTL)
}

func (m *Manager) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(m.method, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, algorithm and expiry and returns the subject.
// Every decode failure is ErrInvalidToken; a valid token without a subject is
// ErrMissingSubject.
func (m *Manager) Verify(tokenStr string) (string, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	return claims.Subject, nil
}
