package chain

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
)

// simulationNamespace scopes the name-based UUIDs used as simulated transaction references
var simulationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:ff-burn-mint:simulate"))

const simulatedRefPrefix = "sim-"

type simulateClient struct {
	clock adapter.Clock

	mu      sync.Mutex
	settled map[string]simulatedMint
}

type simulatedMint struct {
	ref string
	at  time.Time
}

// NewSimulateClient returns a client that settles every valid mint immediately without a chain
func NewSimulateClient(clock adapter.Clock) Client {
	return &simulateClient{clock: clock, settled: make(map[string]simulatedMint)}
}

// SimulatedReference is the deterministic transaction reference for burnID
func SimulatedReference(burnID string) string {
	return simulatedRefPrefix + uuid.NewSHA1(simulationNamespace, []byte(burnID)).String()
}

func (c *simulateClient) SubmitMint(ctx context.Context, req MintRequest) (string, error) {
	if strings.TrimSpace(req.Recipient) == "" {
		return "", domain.NewRejectedError("empty recipient", domain.ErrInvalidAddress)
	}
	if !req.Amount.IsPositive() {
		return "", domain.NewRejectedError("mint amount must be positive", domain.ErrInvalidAmount)
	}

	ref := SimulatedReference(req.BurnID)

	c.mu.Lock()
	c.settled[req.BurnID] = simulatedMint{ref: ref, at: c.clock.Now()}
	c.mu.Unlock()

	logger.InfoCtx(ctx, "Simulated mint",
		logger.BurnID(req.BurnID),
		logger.Recipient(req.Recipient),
		logger.Amount("amount", req.Amount),
		logger.TxRef(ref))

	return ref, nil
}

func (c *simulateClient) QueryConfirmation(_ context.Context, burnID string, txRef *string) (*Confirmation, error) {
	c.mu.Lock()
	mint, ok := c.settled[burnID]
	c.mu.Unlock()
	if ok {
		return &Confirmation{
			Status:      ConfirmationConfirmed,
			TxReference: mint.ref,
			Detail:      "simulated at " + mint.at.Format(time.RFC3339),
		}, nil
	}

	// a previous process may have settled it
	if txRef != nil && *txRef == SimulatedReference(burnID) {
		return &Confirmation{Status: ConfirmationConfirmed, TxReference: *txRef, Detail: "simulated"}, nil
	}

	return &Confirmation{Status: ConfirmationNotFound}, nil
}

func (c *simulateClient) Close() {}
