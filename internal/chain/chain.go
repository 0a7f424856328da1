package chain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/config"
)

// ConfirmationStatus is the chain view of a mint for one burn
type ConfirmationStatus string

const (
	// ConfirmationConfirmed means the mint for the burn is final
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	// ConfirmationPending means a transaction is known but not final yet
	ConfirmationPending ConfirmationStatus = "pending"
	// ConfirmationNotFound means the chain has no record of a mint for the burn
	ConfirmationNotFound ConfirmationStatus = "not_found"
	// ConfirmationReverted means the referenced transaction was mined and failed
	ConfirmationReverted ConfirmationStatus = "reverted"
)

// MintRequest is one mint to submit
type MintRequest struct {
	BurnID    string
	Recipient string
	Amount    decimal.Decimal
}

// Confirmation is the result of QueryConfirmation
type Confirmation struct {
	Status      ConfirmationStatus
	TxReference string // the settling transaction when known
	Detail      string
}

// Client submits mints and reports their finality.
//
// SubmitMint returns *domain.TransientError for failures that may succeed on retry and
// *domain.RejectedError for definitive refusals. QueryConfirmation looks the burn up by
// txRef when given and by burn ID otherwise.
//
//go:generate mockgen -source=chain.go -destination=../mocks/chain.go -package=mocks -mock_names=Client=MockChainClient
type Client interface {
	SubmitMint(ctx context.Context, req MintRequest) (string, error)
	QueryConfirmation(ctx context.Context, burnID string, txRef *string) (*Confirmation, error)
	Close()
}

// New builds the client selected by cfg.Mode
func New(ctx context.Context, cfg config.ChainConfig, dialer adapter.EthClientDialer, clock adapter.Clock) (Client, error) {
	switch cfg.Mode {
	case config.ChainModeSimulate, "":
		return NewSimulateClient(clock), nil
	case config.ChainModeEVM:
		return NewEVMClient(ctx, cfg, dialer, clock)
	default:
		return nil, fmt.Errorf("unsupported chain mode %q", cfg.Mode)
	}
}
