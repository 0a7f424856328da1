package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-burn-mint/internal/domain"
)

// Obligation represents the obligations table - one owed mint per source burn
type Obligation struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// BurnID is the source burn identifier; unique so each burn yields at most one obligation
	BurnID string `gorm:"column:burn_id;not null;type:varchar(128);uniqueIndex:idx_obligations_burn_id"`
	// Recipient is the depositor address owed the mint
	Recipient string `gorm:"column:recipient;not null;type:varchar(128);index:idx_obligations_recipient"`
	// BurnAmount is the burned quantity in raw source units, stored as a decimal string
	BurnAmount decimal.Decimal `gorm:"column:burn_amount;not null;type:varchar(100)"`
	// MintAmount is BurnAmount after the conversion rule, stored as a decimal string
	MintAmount decimal.Decimal `gorm:"column:mint_amount;not null;type:varchar(100)"`
	// ObservedAt is when the burn happened (UTC); drives settlement order
	ObservedAt time.Time `gorm:"column:observed_at;not null;index:idx_obligations_observed_at"`
	// Memo is the optional memo carried by the burn
	Memo *string `gorm:"column:memo;type:text"`
	// Token is the optional source token identifier carried by the burn
	Token *string `gorm:"column:token;type:varchar(128)"`
	// Status is the lifecycle state: pending, submitted, confirmed, failed
	Status domain.ObligationStatus `gorm:"column:status;not null;type:varchar(16);default:pending;index:idx_obligations_status"`
	// FailureKind classifies a failed obligation: validation, rejected, exhausted
	FailureKind domain.FailureKind `gorm:"column:failure_kind;not null;type:varchar(16);default:''"`
	// TxReference is the chain transaction identifier once a submission was accepted
	TxReference *string `gorm:"column:tx_reference;type:varchar(128)"`
	// ClaimID identifies the executor task currently holding the obligation; set only while submitted
	ClaimID *string `gorm:"column:claim_id;type:varchar(32)"`
	// Attempts is the number of submission attempts across all runs
	Attempts int `gorm:"column:attempts;not null;default:0"`
	// LastError is the most recent diagnostic
	LastError *string `gorm:"column:last_error;type:text"`
	// SubmittedAt is when the obligation was last claimed for submission
	SubmittedAt *time.Time `gorm:"column:submitted_at"`
	// ConfirmedAt is when finality was observed
	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName specifies the table name for the Obligation model
func (Obligation) TableName() string {
	return "obligations"
}
