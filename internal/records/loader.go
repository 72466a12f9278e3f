package records

import (
	"fmt"

	"github.com/wolfman30/spa-ledger/pkg/logging"
)

// ParseRow turns one raw row into a Record. Rows with an unparseable date or
// price yield ErrMalformedRecord.
func ParseRow(row Row) (Record, error) {
	date, err := ParseDate(row[ColumnDate])
	if err != nil {
		return Record{}, fmt.Errorf("%w: date %q: %v", ErrMalformedRecord, row[ColumnDate], err)
	}
	priceText, ok := row[ColumnPrice]
	if !ok {
		priceText = "0"
	}
	price, err := ParsePrice(priceText)
	if err != nil {
		return Record{}, fmt.Errorf("%w: price %q: %v", ErrMalformedRecord, row[ColumnPrice], err)
	}
	return Record{
		Date:       date,
		Patient:    row[ColumnPatient],
		Procedures: DecodeProcedures(row[ColumnProcedures]),
		Price:      price,
	}, nil
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	positions bool
	logger    *logging.Logger
	onSkip    func(position int, err error)
}

// WithPositions attaches the 1-based store position (header excluded) to
// every record.
func WithPositions() LoadOption {
	return func(c *loadConfig) { c.positions = true }
}

// WithLogger logs skipped rows at warn level.
func WithLogger(logger *logging.Logger) LoadOption {
	return func(c *loadConfig) { c.logger = logger }
}

// OnSkip registers a callback invoked for every skipped row.
func OnSkip(fn func(position int, err error)) LoadOption {
	return func(c *loadConfig) { c.onSkip = fn }
}

// Load parses rows in order. Malformed rows are dropped silently from the
// result; they never surface as errors.
func Load(rows []Row, opts ...LoadOption) []Record {
	cfg := loadConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		position := i + 1
		rec, err := ParseRow(row)
		if err != nil {
			if cfg.logger != nil {
				cfg.logger.Warn("skipping malformed row", "position", position, "error", err)
			}
			if cfg.onSkip != nil {
				cfg.onSkip(position, err)
			}
			continue
		}
		if cfg.positions {
			rec.Position = position
		}
		out = append(out, rec)
	}
	return out
}
