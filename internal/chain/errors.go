package chain

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/feral-file/ff-burn-mint/internal/domain"
)

// execution reverted (EIP-1474 code 3)
const rpcCodeExecutionReverted = 3

var rejectedMessages = []string{
	"execution reverted",
	"insufficient funds",
	"invalid sender",
	"intrinsic gas too low",
	"exceeds block gas limit",
	"invalid opcode",
}

var transientMessages = []string{
	"timeout",
	"deadline exceeded",
	"rate limit",
	"too many requests",
	"429",
	"connection refused",
	"connection reset",
	"eof",
	"nonce too low",
	"replacement transaction underpriced",
	"header not found",
	"service unavailable",
	"502",
	"503",
}

// classifyError maps an RPC failure to the settlement error taxonomy.
// Unrecognized failures are transient: a retry always queries confirmation first.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsTransient(err) || domain.IsRejected(err) {
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == rpcCodeExecutionReverted {
		return domain.NewRejectedError(rpcErr.Error(), err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTransientError(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewTransientError(op, err)
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rejectedMessages {
		if strings.Contains(msg, m) {
			return domain.NewRejectedError(m, err)
		}
	}
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return domain.NewTransientError(op, err)
		}
	}

	return domain.NewTransientError(op, err)
}
