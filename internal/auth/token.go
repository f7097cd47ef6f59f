package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carry the caller identity the rest of the service works with:
// user, role, and for store-bound staff their store.
type Claims struct {
	UserID  int64  `json:"user_id"`
	RoleID  int64  `json:"role_id"`
	StoreID *int64 `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}

func IssueToken(secret string, ttl time.Duration, userID, roleID int64, storeID *int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		RoleID:  roleID,
		StoreID: storeID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
