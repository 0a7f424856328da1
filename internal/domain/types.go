package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ObligationStatus represents the lifecycle state of a mint obligation
type ObligationStatus string

const (
	ObligationStatusPending   ObligationStatus = "pending"
	ObligationStatusSubmitted ObligationStatus = "submitted"
	ObligationStatusConfirmed ObligationStatus = "confirmed"
	ObligationStatusFailed    ObligationStatus = "failed"
)

// AllObligationStatuses lists every status in lifecycle order
var AllObligationStatuses = []ObligationStatus{
	ObligationStatusPending,
	ObligationStatusSubmitted,
	ObligationStatusConfirmed,
	ObligationStatusFailed,
}

// IsValidObligationStatus checks if a status is one of the known values
func IsValidObligationStatus(s ObligationStatus) bool {
	for _, known := range AllObligationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseObligationStatus parses a case-insensitive status name
func ParseObligationStatus(s string) (ObligationStatus, error) {
	status := ObligationStatus(strings.ToLower(strings.TrimSpace(s)))
	if !IsValidObligationStatus(status) {
		return "", fmt.Errorf("unknown obligation status %q", s)
	}
	return status, nil
}

// FailureKind classifies why an obligation is Failed
type FailureKind string

const (
	FailureKindNone       FailureKind = ""
	FailureKindValidation FailureKind = "validation" // the burn record itself is unusable
	FailureKindRejected   FailureKind = "rejected"   // the chain refused the mint
	FailureKindExhausted  FailureKind = "exhausted"  // transient failures used up the attempt ceiling
)

// ParseFailureKind parses a failure kind name. "all" returns the empty kind, meaning no filter.
func ParseFailureKind(s string) (FailureKind, error) {
	switch k := FailureKind(strings.ToLower(strings.TrimSpace(s))); k {
	case FailureKindValidation, FailureKindRejected, FailureKindExhausted:
		return k, nil
	case "all", "":
		return FailureKindNone, nil
	default:
		return "", fmt.Errorf("unknown failure kind %q", s)
	}
}

// BurnRecord is one historical burn read from the burn store. It is never mutated.
type BurnRecord struct {
	BurnID           string          // source signature, unique in the burn store
	DepositorAddress string          // account owed the minted tokens
	BurnAmount       decimal.Decimal // raw units
	ObservedAt       time.Time       // UTC
	Memo             *string
	Token            *string

	// DecodeError is set by the reader when a column could not be decoded.
	// A record with a decode error is always rejected by validation.
	DecodeError string
}

// SettlementEvent is published when an obligation reaches a terminal status
type SettlementEvent struct {
	EventID     string           `json:"event_id"`
	BurnID      string           `json:"burn_id"`
	Recipient   string           `json:"recipient"`
	MintAmount  string           `json:"mint_amount"`
	Status      ObligationStatus `json:"status"`
	FailureKind FailureKind      `json:"failure_kind,omitempty"`
	TxReference *string          `json:"tx_reference,omitempty"`
	Attempts    int              `json:"attempts"`
	LastError   *string          `json:"last_error,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}
