// Package signer issues and verifies signed download tokens for disks that
// have no native temporary-URL support.
package signer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenMismatch is returned when a token is valid but was issued for a
// different disk or path.
var ErrTokenMismatch = errors.New("token does not match requested object")

// Claims holds signed download token claims.
type Claims struct {
	Disk string `json:"disk"`
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// Signer creates and validates HMAC-signed download tokens.
type Signer struct {
	secret []byte
}

// New creates a Signer with the given HMAC secret.
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign issues a token granting access to (disk, path) until expiresAt.
func (s *Signer) Sign(disk, path string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		Disk: disk,
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr and checks it grants access to (disk, path).
func (s *Signer) Verify(tokenStr, disk, path string) error {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	if claims.Disk != disk || claims.Path != path {
		return ErrTokenMismatch
	}
	return nil
}
