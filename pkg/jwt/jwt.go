package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Config holds identity token settings. Tokens are issued by the external
// auth provider and signed with a shared HS256 key.
type Config struct {
	SigningKey string        `env:"AUTH_JWT_SIGNING_KEY,required"`
	Issuer     string        `env:"AUTH_JWT_ISSUER"`
	Audience   string        `env:"AUTH_JWT_AUDIENCE"`
	Leeway     time.Duration `env:"AUTH_JWT_LEEWAY" envDefault:"30s"`
}

// Service validates identity tokens and extracts the user id from the subject claim.
type Service struct {
	key    []byte
	issuer string
	parser *gojwt.Parser
}

// New creates a token service from cfg.
func New(cfg Config) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(cfg.Audience))
	}

	return &Service{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		parser: gojwt.NewParser(opts...),
	}, nil
}

// Subject validates the token and returns its subject claim.
func (s *Service) Subject(token string) (string, error) {
	claims := &gojwt.RegisteredClaims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return "", ErrExpiredToken
	case err != nil:
		return "", errors.Join(ErrInvalidToken, err)
	case claims.Subject == "":
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// Generate signs a token for subject valid for ttl.
// Production tokens come from the auth provider; this is for local tooling and tests.
func (s *Service) Generate(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
