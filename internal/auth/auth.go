// Package auth resolves bearer tokens into actors.
package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"civicreport/backend/internal/apperr"
	"civicreport/backend/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
)

const issuer = "civicreport-service"

// Identity turns a bearer token into the authenticated actor.
type Identity interface {
	Resolve(ctx context.Context, bearer string) (models.Actor, error)
}

// Claims are the token fields the service relies on.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTIdentity validates HS256 tokens signed with a shared secret.
type JWTIdentity struct {
	secret []byte
	now    func() time.Time
}

func NewJWTIdentity(secret string) *JWTIdentity {
	return &JWTIdentity{secret: []byte(secret), now: time.Now}
}

func (j *JWTIdentity) Resolve(ctx context.Context, bearer string) (models.Actor, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bearer), "Bearer "))
	if raw == "" {
		return models.Actor{}, apperr.Unauthorized("missing bearer token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Actor{}, apperr.Unauthorized("token expired")
		}
		return models.Actor{}, apperr.Unauthorized("invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return models.Actor{}, apperr.Unauthorized("invalid token subject")
	}
	if !claims.Role.Valid() {
		return models.Actor{}, apperr.Unauthorized("invalid token role")
	}
	return models.Actor{ID: uint(id), Role: claims.Role}, nil
}

// IssueToken signs a token for userID with the given role and lifetime.
func IssueToken(secret string, userID uint, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
