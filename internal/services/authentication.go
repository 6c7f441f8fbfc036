package services

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (claims *AdminClaims) Actor() string {
	return claims.Subject
}

const ROLE_ADMIN = "admin"

type Authentication struct {
	secret string
	apiKey string
	now    func() time.Time
}

func NewAuthentication(secret string, apiKey string) (*Authentication, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Authentication{secret, apiKey, time.Now}, nil
}

func (authentication *Authentication) CreateToken(actor string) (string, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return "", validationError("actor is required")
	}

	now := authentication.now()
	claims := &AdminClaims{
		Role: ROLE_ADMIN,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ADMIN_TOKEN_TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authentication.secret))
}

func (authentication *Authentication) Validate(token string) (*AdminClaims, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return []byte(authentication.secret), nil
	}

	jwtToken, err := jwt.ParseWithClaims(token, &AdminClaims{}, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(authentication.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := jwtToken.Claims.(*AdminClaims)
	if !ok || claims.Role != ROLE_ADMIN || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// CheckAPIKey guards token issuing. Without a configured key no token can be
// issued over HTTP.
func (authentication *Authentication) CheckAPIKey(key string) bool {
	if authentication.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(authentication.apiKey), []byte(key)) == 1
}
