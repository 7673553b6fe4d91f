package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var ErrEmptyKey = errors.New("jwt key is empty")

type Claims struct {
	UserID uint `json:"user_id"`
	jwt.StandardClaims
}

// TokenManager signs and validates HS256 tokens carrying the caller's user id.
type TokenManager struct {
	key []byte
	ttl time.Duration
}

func NewTokenManager(key string, ttl time.Duration) (*TokenManager, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{key: []byte(key), ttl: ttl}, nil
}

func (m *TokenManager) GenerateToken(userID uint) (string, error) {
	expirationTime := time.Now().Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.key)
}

func (m *TokenManager) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.key, nil
	})

	if err != nil {
		return nil, err
	}

	if !tkn.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	if claims.UserID == 0 {
		return nil, errors.New("token has no user id")
	}

	return claims, nil
}
