package domain

import "time"

type LogAction string

const (
	ActionWithdrawal LogAction = "Withdrawal"
	ActionReturn     LogAction = "Return"
)

type AuditLogEntry struct {
	ID          int64     `json:"id"`
	UserTag     TagID     `json:"user_tag"`
	MaterialTag TagID     `json:"material_tag"`
	Quantity    int       `json:"quantity"`
	Action      LogAction `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
}

// Withdrawal is the unit of work handed to the store: decrement and log in one transaction.
type Withdrawal struct {
	UserTag     TagID
	MaterialTag TagID
	Quantity    int
	At          time.Time
}
