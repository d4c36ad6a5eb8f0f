package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/yakoovad/capstone-tracker/internal/model"
)

// TokenSecretKey signs and verifies access tokens. It is set from config at startup.
var TokenSecretKey string

// TokenClaims carries the caller identity. Subject is the user id.
type TokenClaims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *TokenClaims) UserID() string {
	return c.Subject
}

func GenerateToken(userID string, role model.Role, dur time.Duration) (string, error) {
	claims := TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(dur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(TokenSecretKey))
}

func VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			alg, _ := token.Header["alg"].(string)
			return nil, errors.Wrap(ErrInvalidSigningMethod, alg)
		}
		return []byte(TokenSecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if _, err = model.ParseRole(string(claims.Role)); err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	return claims, nil
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   model.Role
}

// IsValidToken reports the identity carried by a valid token.
func IsValidToken(tokenString string) (*Identity, bool) {
	claims, err := VerifyToken(tokenString)
	if err != nil {
		return nil, false
	}
	return &Identity{UserID: claims.UserID(), Role: claims.Role}, true
}
