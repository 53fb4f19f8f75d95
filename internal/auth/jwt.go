package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arnavk09/campusswap/internal/config"
)

// TokenTTL is the first-party token lifetime.
const TokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// jwtKey is initialized from config at startup; InitJWTKey also lets
// tests install a known key.
var jwtKey = []byte(config.Envs.JWTSecret)

func InitJWTKey(key []byte) {
	jwtKey = key
}

// Claims wraps the external identity subject. The token is first-party:
// it is valid regardless of which identity provider authenticated the
// user originally.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken signs a bearer token for the given identity.
func GenerateToken(uid, email string) (string, time.Time, error) {
	if uid == "" {
		return "", time.Time{}, errors.New("uid cannot be empty")
	}

	expiry := time.Now().Add(TokenTTL)
	claims := &Claims{
		UID:   uid,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtKey)
	return signed, expiry, err
}

// ValidateToken parses and verifies a bearer token.
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
