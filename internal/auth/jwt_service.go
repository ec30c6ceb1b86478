package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token fails signature, structure,
	// or time-bound validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongIssuer is returned when the issuer claim does not match.
	ErrWrongIssuer = errors.New("invalid token issuer")
	// ErrWrongAudience is returned when the audience claim does not match.
	ErrWrongAudience = errors.New("invalid token audience")
)

// Claims represents the JWT claims carried by an access token.
type Claims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies access tokens. It is stateless: a pure
// function of secret, claims, and clock.
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	now      func() time.Time
}

// NewJWTService creates a JWT service. expiryMinutes below 1 falls back to
// 60.
func NewJWTService(secret, issuer, audience string, expiryMinutes int) *JWTService {
	if expiryMinutes < 1 {
		expiryMinutes = 60
	}
	return &JWTService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		expiry:   time.Duration(expiryMinutes) * time.Minute,
		now:      time.Now,
	}
}

// GenerateToken issues a signed token binding the user's identity. The jti
// is a fresh UUID per token.
func (s *JWTService) GenerateToken(userID, email, givenName, familyName string) (token string, expiresAt time.Time, err error) {
	now := s.now()
	expiresAt = now.Add(s.expiry)
	claims := &Claims{
		Email:      email,
		GivenName:  givenName,
		FamilyName: familyName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies signature, expiry (zero leeway), issuer, and
// audience, and returns the claims. The verified subject is the only
// legitimate source of the caller's identity.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	// Claims validation is done by hand against the service clock; the
	// parser still verifies structure and signature.
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	// Zero leeway: a token is rejected the moment exp passes. exp is
	// mandatory.
	if !claims.VerifyExpiresAt(s.now(), true) {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return nil, ErrWrongIssuer
	}
	if !claims.VerifyAudience(s.audience, true) {
		return nil, ErrWrongAudience
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
