package domain

const (
	// DEFAULT_MIN_BURN_AMOUNT is the smallest burn (raw units, 6 decimals) that is settled: 420 tokens
	DEFAULT_MIN_BURN_AMOUNT = 420_000_000

	// DEFAULT_SOURCE_DECIMALS is the precision of raw burn amounts
	DEFAULT_SOURCE_DECIMALS = 6

	// KV keys used by the run journal
	KV_RUN_PREFIX = "run:"
	KV_LAST_RUN   = "last_run"
)
