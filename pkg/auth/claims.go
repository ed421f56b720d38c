package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/medibook/medibook-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Role   enums.ActorRole
	// PatientID is set when a caregiver acts for another patient.
	PatientID string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued by the auth backend.
type AccessTokenClaims struct {
	UserID    string          `json:"user_id"`
	Role      enums.ActorRole `json:"role"`
	PatientID string          `json:"patient_id,omitempty"`
	jwt.RegisteredClaims
}

// CartOwner resolves whose cart the bearer operates on.
func (c *AccessTokenClaims) CartOwner() string {
	if c == nil {
		return ""
	}
	if c.Role == enums.ActorRoleCaregiver && c.PatientID != "" {
		return c.PatientID
	}
	return c.UserID
}
