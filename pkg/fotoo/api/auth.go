package api

import (
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// Identity is the authenticated caller extracted from the JWT claims.
type Identity struct {
	UserID uuid.UUID
	Login  string
}

// NewTokenAuth builds the JWT authority used by both the Verifier
// middleware and token issuance in tests.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// identityFromRequest reads the verified claims placed on the context by
// jwtauth.Verifier. The "sub" claim carries the user id, "login" the
// login used as the storage key prefix.
func identityFromRequest(r *http.Request) (*Identity, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, err
	}

	login, _ := claims["login"].(string)
	return &Identity{UserID: userID, Login: login}, nil
}
