package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus tracks the lifecycle of a pending membership invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

// Invitation is an offer for an email address to join an organization with a
// given role. Tokens are opaque and single-use; delivery is out of scope.
type Invitation struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Email          string
	Role           Role
	Token          string
	InvitedByID    uuid.UUID
	Status         InvitationStatus
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// IsExpired reports whether the invitation can no longer be accepted.
func (i *Invitation) IsExpired() bool {
	return i.Status != InvitationPending || time.Now().After(i.ExpiresAt)
}
