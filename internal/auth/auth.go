package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

// authEnv holds raw env values before validation.
type authEnv struct {
	Secret string `env:"MUD_AUTH_SECRET"`
	Issuer string `env:"MUD_AUTH_ISSUER" envDefault:"tickmud"`
}

// Config defines how tokens are verified.
type Config struct {
	Secret []byte
	Issuer string
	Now    func() time.Time
}

// LoadConfigFromEnv reads token verification settings from the environment.
func LoadConfigFromEnv() (Config, error) {
	var raw authEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse auth env: %w", err)
	}

	secret := strings.TrimSpace(raw.Secret)
	if secret == "" {
		return Config{}, fmt.Errorf("MUD_AUTH_SECRET is required")
	}

	return Config{
		Secret: []byte(secret),
		Issuer: strings.TrimSpace(raw.Issuer),
		Now:    time.Now,
	}, nil
}

// Claims are the verified contents of a session token.
type Claims struct {
	Account string
	// Characters limits which characters the token may log in. Empty means any.
	Characters []string
	ExpiresAt  time.Time
}

// Allows reports whether the claims permit logging in characterID.
func (c Claims) Allows(characterID string) bool {
	return len(c.Characters) == 0 || slices.Contains(c.Characters, characterID)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Characters []string `json:"characters,omitempty"`
}

// Authenticator checks the token attached to a client frame.
type Authenticator interface {
	Authenticate(token string) (Claims, error)
}

// JWTAuthenticator verifies HS256 tokens issued by the account service.
type JWTAuthenticator struct {
	cfg Config
}

func NewJWTAuthenticator(cfg Config) (*JWTAuthenticator, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("auth secret is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &JWTAuthenticator{cfg: cfg}, nil
}

func (a *JWTAuthenticator) Authenticate(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, fmt.Errorf("token is required: %w", ErrUnauthorized)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.cfg.Now),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return a.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if parsed.Subject == "" {
		return Claims{}, fmt.Errorf("token subject is required: %w", ErrUnauthorized)
	}

	return Claims{
		Account:    parsed.Subject,
		Characters: parsed.Characters,
		ExpiresAt:  parsed.ExpiresAt.Time,
	}, nil
}
