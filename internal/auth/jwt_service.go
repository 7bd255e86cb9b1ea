package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// APITokenExpiry is the lifetime of bearer API tokens.
const APITokenExpiry = 24 * time.Hour

const apiTokenIssuer = "surveyhub"

// Claims represents API token claims. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService issues and validates bearer API tokens for scripted access.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// GenerateAPIToken signs a token for userID and returns it with its expiry.
func (s *JWTService) GenerateAPIToken(userID, email string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(APITokenExpiry)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    apiTokenIssuer,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseToken verifies signature, issuer and lifetime of tokenString.
func (s *JWTService) ParseToken(tokenString string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(apiTokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := ClaimsFromToken(token)
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ClaimsFromToken extracts our claims from a token parsed by echo-jwt.
func ClaimsFromToken(v interface{}) (*Claims, bool) {
	token, ok := v.(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}
