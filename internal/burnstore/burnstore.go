package burnstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/feral-file/ff-burn-mint/internal/config"
	"github.com/feral-file/ff-burn-mint/internal/domain"
	"github.com/feral-file/ff-burn-mint/internal/logger"
)

// Reader reads historical burns from the source dataset. It never writes.
//
//go:generate mockgen -source=burnstore.go -destination=../mocks/burnstore.go -package=mocks -mock_names=Reader=MockBurnReader
type Reader interface {
	// ReadAll returns every burn ordered by observed_at then burn_id
	ReadAll(ctx context.Context) ([]domain.BurnRecord, error)
	// ReadByBurner returns the burns of one depositor, newest first
	ReadByBurner(ctx context.Context, burner string) ([]domain.BurnRecord, error)
	// Close releases the underlying connection
	Close() error
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const selectColumns = "signature, burner, amount, memo, token, timestamp, created_at"

type sqliteReader struct {
	db    *sql.DB
	table string
}

// Open opens the burn store read-only. It returns domain.ErrSourceNotFound when the file is missing.
func Open(cfg config.BurnStoreConfig) (Reader, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, cfg.Path)
		}
		return nil, fmt.Errorf("failed to stat burn store: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = "burns"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid burn store table name %q", table)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open burn store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open burn store: %w", err)
	}

	return &sqliteReader{db: db, table: table}, nil
}

// ReadAll returns every burn ordered by observed_at then burn_id
func (r *sqliteReader) ReadAll(ctx context.Context) ([]domain.BurnRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", selectColumns, r.table) //nolint:gosec // table name is validated in Open
	records, err := r.query(ctx, query)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].ObservedAt.Equal(records[j].ObservedAt) {
			return records[i].ObservedAt.Before(records[j].ObservedAt)
		}
		return records[i].BurnID < records[j].BurnID
	})

	return records, nil
}

// ReadByBurner returns the burns of one depositor, newest first
func (r *sqliteReader) ReadByBurner(ctx context.Context, burner string) ([]domain.BurnRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE burner = ?", selectColumns, r.table) //nolint:gosec // table name is validated in Open
	records, err := r.query(ctx, query, burner)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].ObservedAt.Equal(records[j].ObservedAt) {
			return records[i].ObservedAt.After(records[j].ObservedAt)
		}
		return records[i].BurnID > records[j].BurnID
	})

	return records, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

func (r *sqliteReader) query(ctx context.Context, query string, args ...any) ([]domain.BurnRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query burn store: %w", err)
	}
	defer rows.Close()

	var records []domain.BurnRecord
	for rows.Next() {
		var signature, burner, amount, memo, token, timestamp, createdAt any
		if err := rows.Scan(&signature, &burner, &amount, &memo, &token, &timestamp, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan burn record: %w", err)
		}

		burnID := toString(signature)
		if burnID == "" {
			logger.WarnCtx(ctx, "Skipping burn record without signature")
			continue
		}

		record := domain.BurnRecord{
			BurnID:           burnID,
			DepositorAddress: toString(burner),
			Memo:             toOptionalString(memo),
			Token:            toOptionalString(token),
		}

		parsedAmount, err := ParseAmount(amount)
		if err != nil {
			record.DecodeError = err.Error()
		} else {
			record.BurnAmount = parsedAmount
		}

		observedAt, err := ParseTimestamp(timestamp)
		if err != nil {
			observedAt, err = ParseTimestamp(createdAt)
		}
		if err != nil {
			if record.DecodeError == "" {
				record.DecodeError = fmt.Sprintf("unparseable timestamp and created_at: %v", err)
			}
			logger.WarnCtx(ctx, "Burn record has no usable timestamp",
				logger.BurnID(burnID),
				zap.Any("timestamp", timestamp),
				zap.Any("created_at", createdAt))
		}
		record.ObservedAt = observedAt

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate burn store: %w", err)
	}

	return records, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func toOptionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := toString(v)
	return &s
}
