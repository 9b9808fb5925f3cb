package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"safepath/pkg/models"
)

const RoleNGO = "ngo"

var ErrTokenExpired = errors.New("token has expired")

type TokenService struct {
	Secret   []byte
	Issuer   string
	Duration time.Duration
}

// Claims carries the NGO identity. Subject is the NGO id.
type Claims struct {
	Email   string `json:"email"`
	OrgName string `json:"org_name"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() models.NGOIdentity {
	return models.NGOIdentity{ID: c.Subject, Email: c.Email, OrgName: c.OrgName}
}

func (ts TokenService) Sign(ngo models.NGOIdentity) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ts.Duration)

	claims := Claims{
		Email:   ngo.Email,
		OrgName: ngo.OrgName,
		Role:    RoleNGO,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.Issuer,
			Subject:   ngo.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(ts.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}

// ExpiresIn is the token lifetime in whole seconds.
func (ts TokenService) ExpiresIn() int {
	return int(ts.Duration / time.Second)
}

func (ts TokenService) Parse(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// enforce HS256
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
