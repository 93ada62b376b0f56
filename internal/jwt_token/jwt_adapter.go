package jwttoken

import (
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	authmw "clubhouse/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes JWTService through the middleware's validator
// interface so the middleware does not import jwt types.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.Principal, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	personID, err := id.ParsePersonID(claims.PersonID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return &authmw.Principal{PersonID: personID, Email: claims.Email, RoleHint: claims.RoleHint}, nil
}
