// forum-backend/auth/auth.go
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Desi451/forum-backend/models"
)

// Claims is the identity payload carried by access tokens.
type Claims struct {
	UserID   int64  `json:"userId"`
	Nickname string `json:"userNickname"`
	Login    string `json:"userLogin"`
	Avatar   string `json:"userProfilePicture,omitempty"`
	Role     int    `json:"userRole"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC-signed access tokens. The signing
// key and lifetime are fixed at construction.
type TokenService struct {
	key        []byte
	issuer     string
	expiration time.Duration
}

func NewTokenService(key, issuer string, expiration time.Duration) *TokenService {
	return &TokenService{key: []byte(key), issuer: issuer, expiration: expiration}
}

// Generate signs a token for the given user. The avatar claim carries the
// already-resolved public URL, not the stored path.
func (s *TokenService) Generate(user *models.User, avatarURL string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Nickname: user.Nickname,
		Login:    user.Login,
		Avatar:   avatarURL,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Validate parses and verifies a token string, returning its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Identity converts claims into the principal handed to core operations.
func (c *Claims) Identity() models.Identity {
	return models.Identity{UserID: c.UserID, Role: c.Role}
}
