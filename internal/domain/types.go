package domain

import (
	"fmt"
	"strings"
	"time"
)

// TriplerStatus represents the confirmation state of a tripler
type TriplerStatus string

const (
	TriplerStatusUnconfirmed TriplerStatus = "unconfirmed"
	TriplerStatusPending     TriplerStatus = "pending"
	TriplerStatusConfirmed   TriplerStatus = "confirmed"
)

// IsValidTriplerStatus checks if a status is one of the known tripler statuses
func IsValidTriplerStatus(status TriplerStatus) bool {
	return status == TriplerStatusUnconfirmed ||
		status == TriplerStatusPending ||
		status == TriplerStatusConfirmed
}

// CanTransitionTo reports whether the status machine allows moving from s to next.
// Transitions are monotonic: unconfirmed -> pending -> confirmed.
func (s TriplerStatus) CanTransitionTo(next TriplerStatus) bool {
	switch s {
	case TriplerStatusUnconfirmed:
		return next == TriplerStatusPending || next == TriplerStatusConfirmed
	case TriplerStatusPending:
		return next == TriplerStatusPending || next == TriplerStatusConfirmed
	default:
		return false
	}
}

// PayoutStatus represents the settlement state of a payout
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

// RequiredTriplees is the number of triplees a tripler commits to bring
const RequiredTriplees = 3

// Location is a WGS84 coordinate pair
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Triplee is one of the three voters a tripler pledges to bring to the polls
type Triplee struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Housemate    bool   `json:"housemate,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// DisplayName returns the name used in outbound messages
func (t Triplee) DisplayName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Summary returns the triplee rendered for audit reports
func (t Triplee) Summary() string {
	parts := []string{t.DisplayName()}
	if t.Relationship != "" {
		parts = append(parts, t.Relationship)
	}
	if t.Housemate {
		parts = append(parts, "housemate")
	}
	return strings.Join(parts, ", ")
}

// Verification is a provenance record returned by an identity lookup
type Verification struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

// CarrierRecord is one carrier lookup result kept in a tripler's audit log
type CarrierRecord struct {
	Phone       string    `json:"phone"`
	CarrierName string    `json:"carrier_name"`
	IsBlocked   bool      `json:"is_blocked"`
	CheckedAt   time.Time `json:"checked_at"`
}

// FullName joins a first and an optional last name
func FullName(firstName string, lastName *string) string {
	if lastName == nil || *lastName == "" {
		return firstName
	}
	return fmt.Sprintf("%s %s", firstName, *lastName)
}

// FormatCents renders an amount in minor currency units as dollars, e.g. 1500 -> "$15.00"
func FormatCents(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s$%d.%02d", sign, amount/100, amount%100)
}

// TriplerEventType is the type of a tripler lifecycle event
type TriplerEventType string

const (
	TriplerEventPending   TriplerEventType = "pending"
	TriplerEventConfirmed TriplerEventType = "confirmed"
	TriplerEventDetached  TriplerEventType = "detached"
)

// TriplerEvent is the lifecycle notification published to the message broker
type TriplerEvent struct {
	ID           string           `json:"id"`
	Type         TriplerEventType `json:"type"`
	TriplerID    string           `json:"tripler_id"`
	AmbassadorID string           `json:"ambassador_id,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
