package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/user"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"

	streamTokenTTL = 5 * time.Minute
)

var ErrInvalidClaims = errors.New("token claims are missing or invalid")

// Service verifies tokens issued by the auth service and mints the
// short-lived stream tokens used by EventSource clients, which cannot send
// an Authorization header.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	GenerateAccessToken(identity user.Identity) (token string, expiresAt int64, err error)
	GenerateStreamToken(identity user.Identity) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (user.Identity, error)
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string, leeway time.Duration) (Service, error) {
	expiration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	return &JWTService{
		accessTokenExpirationTime: expiration,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(leeway)),
		now:                       time.Now,
	}, nil
}

func (j *JWTService) claimsFor(identity user.Identity, tokenType string, expiresAt int64) map[string]interface{} {
	return map[string]interface{}{
		"user_id":       identity.UserID,
		"technician_id": identity.TechnicianID,
		"shop_id":       identity.ShopID,
		"role":          string(identity.Role),
		"type":          tokenType,
		"exp":           expiresAt,
	}
}

// GenerateAccessToken is used by tests and local tooling. Production access
// tokens come from the auth service with the same claim names.
func (j *JWTService) GenerateAccessToken(identity user.Identity) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpirationTime).Unix()
	_, tokenString, err := j.tokenAuth.Encode(j.claimsFor(identity, TokenTypeAccess, expiresAt))
	return tokenString, expiresAt, err
}

// GenerateStreamToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateStreamToken(identity user.Identity) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(streamTokenTTL).Unix()
	_, tokenString, err := j.tokenAuth.Encode(j.claimsFor(identity, TokenTypeStream, expiresAt))
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(streamTokenTTL.Seconds()), nil
}

// ValidateStreamToken validates a stream token and returns its identity
func (j *JWTService) ValidateStreamToken(tokenString string) (user.Identity, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return user.Identity{}, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return user.Identity{}, ErrInvalidClaims
	}
	if t, _ := claims["type"].(string); t != TokenTypeStream {
		return user.Identity{}, ErrInvalidClaims
	}
	return IdentityFromClaims(claims)
}

// IdentityFromClaims builds the caller identity from verified token claims.
// technician_id is optional: managers and admins need not be technicians.
func IdentityFromClaims(claims map[string]interface{}) (user.Identity, error) {
	userID, _ := claims["user_id"].(string)
	shopID, _ := claims["shop_id"].(string)
	roleStr, _ := claims["role"].(string)
	technicianID, _ := claims["technician_id"].(string)

	if userID == "" || shopID == "" {
		return user.Identity{}, ErrInvalidClaims
	}
	role := user.Role(roleStr)
	if !role.Valid() {
		return user.Identity{}, fmt.Errorf("%w: %w", ErrInvalidClaims, user.ErrInvalidRole)
	}

	return user.Identity{
		UserID:       userID,
		TechnicianID: technicianID,
		ShopID:       shopID,
		Role:         role,
	}, nil
}
