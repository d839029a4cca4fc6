package jwtinfra

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/invest-api/internal/config"
)

// Claims holds the JWT payload fields.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs.
type Provider struct {
	secret []byte
	expiry time.Duration
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		secret: []byte(cfg.JWTSecret),
		expiry: time.Duration(cfg.JWTExpiryDays) * 24 * time.Hour,
	}
}

func (p *Provider) Sign(userID, role string) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
