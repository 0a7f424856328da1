package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/ff-burn-mint/internal/domain"
)

// ObligationEvent represents the obligation_events table - append-only audit of every status transition
type ObligationEvent struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// BurnID is the obligation this event belongs to
	BurnID string `gorm:"column:burn_id;not null;type:varchar(128);index:idx_obligation_events_burn_id"`
	// FromStatus is the status before the transition, empty on creation
	FromStatus domain.ObligationStatus `gorm:"column:from_status;not null;type:varchar(16);default:''"`
	// ToStatus is the status after the transition
	ToStatus domain.ObligationStatus `gorm:"column:to_status;not null;type:varchar(16)"`
	// Attempt is the attempt counter at the time of the event
	Attempt int `gorm:"column:attempt;not null;default:0"`
	// TxReference is the chain transaction involved, if any
	TxReference *string `gorm:"column:tx_reference;type:varchar(128)"`
	// Error is the diagnostic attached to the transition, if any
	Error *string `gorm:"column:error;type:text"`
	// Details holds transition specific data (claim id, failure kind, run id)
	Details datatypes.JSON `gorm:"column:details"`
	// CreatedAt is the timestamp of the transition
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the table name for the ObligationEvent model
func (ObligationEvent) TableName() string {
	return "obligation_events"
}
