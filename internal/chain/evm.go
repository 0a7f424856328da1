package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/feral-file/ff-burn-mint/internal/adapter"
	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
)

// settlementABI covers the mint entry point and its settlement event.
// The contract keys every mint by burn ID and refuses a burn ID it has already settled.
const settlementABI = `[
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"burnId","type":"bytes32"}],"outputs":[]},
	{"type":"event","name":"BurnSettled","anonymous":false,"inputs":[
		{"name":"burnId","type":"bytes32","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]}
]`

const defaultCallTimeout = 30 * time.Second

type evmClient struct {
	client        adapter.EthClient
	abi           abi.ABI
	chainID       *big.Int
	contract      common.Address
	key           *ecdsa.PrivateKey
	from          common.Address
	gasLimit      uint64
	confirmations uint64
	lookback      uint64
	deployBlock   uint64
	callTimeout   time.Duration
	head          *headCache

	// serializes nonce assignment between concurrent submissions
	nonceMu sync.Mutex
}

// NewEVMClient dials cfg.RPCURL and loads the signing key
func NewEVMClient(ctx context.Context, cfg config.ChainConfig, dialer adapter.EthClientDialer, clock adapter.Clock) (Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	key, err := loadSigningKey(cfg)
	if err != nil {
		return nil, err
	}

	client, err := dialer.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if cfg.ChainID != 0 && chainID.Cmp(big.NewInt(cfg.ChainID)) != 0 {
		client.Close()
		return nil, fmt.Errorf("rpc chain id %s does not match configured chain id %d", chainID, cfg.ChainID)
	}

	c, err := newEVMClient(client, cfg, chainID, key, clock)
	if err != nil {
		client.Close()
		return nil, err
	}

	logger.InfoCtx(ctx, "Connected to chain",
		zap.String("chainID", chainID.String()),
		zap.String("contract", c.contract.Hex()),
		zap.String("minter", c.from.Hex()))

	return c, nil
}

func newEVMClient(client adapter.EthClient, cfg config.ChainConfig, chainID *big.Int, key *ecdsa.PrivateKey, clock adapter.Clock) (*evmClient, error) {
	parsed, err := abi.JSON(strings.NewReader(settlementABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	confirmations := cfg.Confirmations
	if confirmations == 0 {
		confirmations = 1
	}

	c := &evmClient{
		client:        client,
		abi:           parsed,
		chainID:       chainID,
		contract:      common.HexToAddress(cfg.ContractAddress),
		key:           key,
		from:          crypto.PubkeyToAddress(key.PublicKey),
		gasLimit:      cfg.GasLimit,
		confirmations: confirmations,
		lookback:      cfg.LogLookbackBlocks,
		deployBlock:   cfg.DeployBlock,
		callTimeout:   callTimeout,
	}
	c.head = newHeadCache(c.fetchLatestBlock, cfg.HeadTTL, cfg.HeadStaleWindow, clock)
	return c, nil
}

func (c *evmClient) fetchLatestBlock(ctx context.Context) (uint64, error) {
	head, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, classifyError("latest header", err)
	}
	return head.Number.Uint64(), nil
}

func loadSigningKey(cfg config.ChainConfig) (*ecdsa.PrivateKey, error) {
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid chain.private_key: %w", err)
		}
		return key, nil
	}

	if cfg.KeystorePath == "" {
		return nil, errors.New("no signing key configured")
	}
	data, err := os.ReadFile(cfg.KeystorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	k, err := keystore.DecryptKey(data, cfg.KeystorePassword)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}
	return k.PrivateKey, nil
}

// BurnKey derives the on-chain bytes32 key of a burn ID
func BurnKey(burnID string) common.Hash {
	return crypto.Keccak256Hash([]byte(burnID))
}

// SubmitMint signs and broadcasts mint(recipient, amount, burnKey)
func (c *evmClient) SubmitMint(ctx context.Context, req MintRequest) (string, error) {
	if !common.IsHexAddress(req.Recipient) {
		return "", domain.NewRejectedError("recipient is not an evm address", domain.ErrInvalidAddress)
	}
	if !req.Amount.IsPositive() || !req.Amount.IsInteger() {
		return "", domain.NewRejectedError(
			fmt.Sprintf("mint amount %s is not a positive integer in base units", req.Amount),
			domain.ErrInvalidAmount)
	}

	data, err := c.abi.Pack("mint", common.HexToAddress(req.Recipient), req.Amount.BigInt(), BurnKey(req.BurnID))
	if err != nil {
		return "", domain.NewRejectedError("failed to encode mint call", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	nonce, err := c.client.PendingNonceAt(callCtx, c.from)
	if err != nil {
		return "", classifyError("pending nonce", err)
	}

	gasLimit := c.gasLimit
	if gasLimit == 0 {
		gasLimit, err = c.client.EstimateGas(callCtx, ethereum.CallMsg{
			From: c.from,
			To:   &c.contract,
			Data: data,
		})
		if err != nil {
			return "", classifyError("estimate gas", err)
		}
	}

	tx, err := c.buildTransaction(callCtx, nonce, gasLimit, data)
	if err != nil {
		return "", err
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(callCtx, signed); err != nil {
		// the node already holds this exact transaction
		if strings.Contains(strings.ToLower(err.Error()), "already known") {
			return signed.Hash().Hex(), nil
		}
		return "", classifyError("send transaction", err)
	}

	logger.DebugCtx(ctx, "Mint transaction sent",
		logger.BurnID(req.BurnID),
		logger.TxRef(signed.Hash().Hex()),
		zap.Uint64("nonce", nonce))

	return signed.Hash().Hex(), nil
}

// buildTransaction prices a dynamic fee transaction, or a legacy one when the chain has no base fee
func (c *evmClient) buildTransaction(ctx context.Context, nonce uint64, gasLimit uint64, data []byte) (*types.Transaction, error) {
	head, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, classifyError("latest header", err)
	}

	if head.BaseFee == nil {
		gasPrice, err := c.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, classifyError("suggest gas price", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &c.contract,
			Gas:      gasLimit,
			GasPrice: gasPrice,
			Data:     data,
		}), nil
	}

	tip, err := c.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, classifyError("suggest gas tip", err)
	}
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		To:        &c.contract,
		Gas:       gasLimit,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Data:      data,
	}), nil
}

// QueryConfirmation checks the settlement event for burnID first, since any transaction may have
// settled it, then falls back to the receipt and mempool state of txRef.
func (c *evmClient) QueryConfirmation(ctx context.Context, burnID string, txRef *string) (*Confirmation, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	latest, err := c.head.Latest(callCtx)
	if err != nil {
		return nil, err
	}

	from := c.deployBlock
	if c.lookback > 0 && latest > c.lookback && latest-c.lookback > from {
		from = latest - c.lookback
	}
	settled, err := c.findSettlement(ctx, burnID, from, latest)
	if err != nil {
		return nil, err
	}
	if settled != nil {
		return c.byDepth(settled.BlockNumber, latest, settled.TxHash.Hex(), "settlement event found"), nil
	}

	if txRef == nil || *txRef == "" {
		// a transaction sent before its reference was recorded may have settled long before this query
		settled, err = c.searchHistory(ctx, burnID, from)
		if err != nil {
			return nil, err
		}
		if settled != nil {
			return c.byDepth(settled.BlockNumber, latest, settled.TxHash.Hex(), "settlement event found in history"), nil
		}
		return &Confirmation{Status: ConfirmationNotFound}, nil
	}

	hash := common.HexToHash(*txRef)
	receipt, err := c.client.TransactionReceipt(callCtx, hash)
	switch {
	case err == nil:
		if receipt.Status == types.ReceiptStatusFailed {
			return &Confirmation{
				Status:      ConfirmationReverted,
				TxReference: *txRef,
				Detail:      fmt.Sprintf("transaction reverted in block %s", receipt.BlockNumber),
			}, nil
		}
		return c.byDepth(receipt.BlockNumber.Uint64(), latest, *txRef, "receipt found"), nil
	case errors.Is(err, ethereum.NotFound):
	default:
		return nil, classifyError("transaction receipt", err)
	}

	_, isPending, err := c.client.TransactionByHash(callCtx, hash)
	switch {
	case err == nil && isPending:
		return &Confirmation{Status: ConfirmationPending, TxReference: *txRef, Detail: "transaction in mempool"}, nil
	case err == nil, errors.Is(err, ethereum.NotFound):
		return &Confirmation{Status: ConfirmationNotFound, TxReference: *txRef}, nil
	default:
		return nil, classifyError("transaction by hash", err)
	}
}

// findSettlement returns the first live BurnSettled log for burnID in [from, to], or nil
func (c *evmClient) findSettlement(ctx context.Context, burnID string, from uint64, to uint64) (*types.Log, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	logs, err := c.client.FilterLogs(callCtx, ethereum.FilterQuery{
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{c.abi.Events["BurnSettled"].ID}, {BurnKey(burnID)}},
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
	})
	if err != nil {
		return nil, classifyError("filter logs", err)
	}
	for i := range logs {
		if !logs[i].Removed {
			return &logs[i], nil
		}
	}
	return nil, nil
}

// searchHistory walks backwards from before (exclusive) to the deploy block, one lookback window per call
func (c *evmClient) searchHistory(ctx context.Context, burnID string, before uint64) (*types.Log, error) {
	for end := before; end > c.deployBlock; {
		start := c.deployBlock
		if c.lookback > 0 && end-c.deployBlock > c.lookback {
			start = end - c.lookback
		}
		settled, err := c.findSettlement(ctx, burnID, start, end-1)
		if err != nil || settled != nil {
			return settled, err
		}
		end = start
	}
	return nil, nil
}

func (c *evmClient) byDepth(block uint64, latest uint64, txRef string, detail string) *Confirmation {
	depth := uint64(0)
	if latest >= block {
		depth = latest - block + 1
	}
	if depth >= c.confirmations {
		return &Confirmation{Status: ConfirmationConfirmed, TxReference: txRef, Detail: detail}
	}
	return &Confirmation{
		Status:      ConfirmationPending,
		TxReference: txRef,
		Detail:      fmt.Sprintf("%s, %d of %d confirmations", detail, depth, c.confirmations),
	}
}

func (c *evmClient) Close() {
	c.client.Close()
}
