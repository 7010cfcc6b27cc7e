package models

import "github.com/golang-jwt/jwt/v5"

// Actor identifies the authenticated caller for domain operations.
// It carries only what the services need: identity, tenant scope and role.
type Actor struct {
	UserID   string   `json:"user_id"`
	SchoolID string   `json:"school_id"`
	Role     Role     `json:"role"`
	WardIDs  []string `json:"ward_ids,omitempty"`
}

// Ward reports whether the student is a linked ward of the actor. Linkage
// is asserted by the identity service in the token, not stored here.
func (a Actor) Ward(studentID string) bool {
	for _, id := range a.WardIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// JWTClaims represents the JWT payload for access tokens. Tokens are issued
// by the external identity service; this API only validates them.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	SchoolID string `json:"school_id"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name"`
	// WardIDs lists the students a guardian token may act for.
	WardIDs []string `json:"ward_ids,omitempty"`
	jwt.RegisteredClaims
}

// Actor extracts the domain actor from validated claims.
func (c *JWTClaims) Actor() Actor {
	return Actor{UserID: c.UserID, SchoolID: c.SchoolID, Role: c.Role, WardIDs: c.WardIDs}
}
