package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/requestcontext"
)

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 signed stateless identity tokens.
//
// Tokens are self-contained: there is no session store and no revocation
// list, so a leaked token stays valid until its natural expiry. That is a
// documented property of the design, not an oversight.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey string, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// TTL reports the expiry window applied to issued tokens.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token embedding the subject's identity.
func (s *Service) Issue(ident requestcontext.AuthIdentity, now time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: ident.SubjectID.String(),
		Email:  ident.Email,
		Role:   ident.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.SubjectID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// Verify checks signature and expiry and reconstructs the identity. Pure
// function of the token string and the shared secret; no I/O.
func (s *Service) Verify(tokenString string) (requestcontext.AuthIdentity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return requestcontext.AuthIdentity{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return requestcontext.AuthIdentity{}, dErrors.New(dErrors.CodeUnauthorized, "token signature is invalid")
		default:
			return requestcontext.AuthIdentity{}, dErrors.New(dErrors.CodeUnauthorized, "malformed token")
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return requestcontext.AuthIdentity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	subjectID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return requestcontext.AuthIdentity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return requestcontext.AuthIdentity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return requestcontext.AuthIdentity{
		SubjectID: subjectID,
		Email:     claims.Email,
		Role:      role,
	}, nil
}
