package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ScanRole string

const (
	RoleUser     ScanRole = "user"
	RoleMaterial ScanRole = "material"
)

func ParseScanRole(s string) (ScanRole, error) {
	role := ScanRole(strings.ToLower(strings.TrimSpace(s)))
	switch role {
	case RoleUser, RoleMaterial:
		return role, nil
	}
	return "", NewValidationError("role", "must be user or material")
}

type TagID string

type ScanEvent struct {
	ID        uuid.UUID `json:"id"`
	Role      ScanRole  `json:"role"`
	Tag       TagID     `json:"tag"`
	ScannedAt time.Time `json:"scanned_at"`
}

func NewScanEvent(role ScanRole, tag TagID, at time.Time) ScanEvent {
	return ScanEvent{
		ID:        uuid.New(),
		Role:      role,
		Tag:       tag,
		ScannedAt: at,
	}
}

type ScanPhase string

const (
	PhaseEmpty            ScanPhase = "empty"
	PhasePartiallyScanned ScanPhase = "partially_scanned"
	PhaseBothScanned      ScanPhase = "both_scanned"
)

type ScanState struct {
	Phase           ScanPhase  `json:"phase"`
	User            *ScanEvent `json:"user,omitempty"`
	Material        *ScanEvent `json:"material,omitempty"`
	SpecifyQuantity bool       `json:"specify_quantity"`
	QuantityInput   string     `json:"quantity_input,omitempty"`
	LastAttempt     *Attempt   `json:"last_attempt,omitempty"`
}

type AttemptOutcome string

const (
	OutcomeApplied  AttemptOutcome = "applied"
	OutcomeRejected AttemptOutcome = "rejected"
)

type Attempt struct {
	ID          uuid.UUID      `json:"id"`
	UserTag     TagID          `json:"user_tag"`
	MaterialTag TagID          `json:"material_tag"`
	Requested   int            `json:"requested"`
	Outcome     AttemptOutcome `json:"outcome"`
	NewQuantity int            `json:"new_quantity,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	At          time.Time      `json:"at"`
}
