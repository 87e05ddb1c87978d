package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload issued by the identity service.
type JWTClaims struct {
	SubjectID string      `json:"subject_id"`
	Role      SubjectRole `json:"role"`
	FullName  string      `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
