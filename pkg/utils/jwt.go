package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/followflow/internal/transfer"
)

const tokenIssuer = "followflow"

// GenerateToken signs an admin token for subject valid for tokenDuration.
func GenerateToken(secretKey, subject string, tokenDuration time.Duration) (string, error) {
	now := time.Now()
	claims := transfer.AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(secretKey, tokenString string) (*transfer.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &transfer.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*transfer.AdminClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
