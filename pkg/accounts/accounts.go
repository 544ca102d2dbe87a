// Package accounts enumerates local operating-system user accounts.
package accounts

import (
	"sort"

	"go.uber.org/zap"
)

// DefaultMinRegularID is the first uid treated as a regular (human) account.
const DefaultMinRegularID = 1000

// Record is one entry from the system account database.
type Record struct {
	Username string
	UID      int
	GID      int
	FullName string
	HomeDir  string
	Shell    string
	IsSystem bool
}

// Database reads the full list of account records.
type Database interface {
	Accounts() ([]Record, error)
}

// StaticDatabase serves a fixed set of records.
type StaticDatabase []Record

// Accounts returns a copy of the records.
func (s StaticDatabase) Accounts() ([]Record, error) {
	return append([]Record(nil), s...), nil
}

// Options controls filtering.
type Options struct {
	IncludeSystem bool
	MinRegularID  int
}

// Enumerate reads every account from db, marks accounts whose uid is below
// MinRegularID as system accounts, drops them unless IncludeSystem is set, and
// returns the remainder sorted by username. Read failures are logged and
// returned as *EnumerationError.
func Enumerate(db Database, opts Options, logger *zap.Logger) ([]Record, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := opts.MinRegularID
	if threshold <= 0 {
		threshold = DefaultMinRegularID
	}

	all, err := db.Accounts()
	if err != nil {
		enumErr := &EnumerationError{Message: "could not read the system account database", Err: err}
		logger.Error("account enumeration failed", zap.Error(enumErr))
		return nil, enumErr
	}

	out := make([]Record, 0, len(all))
	for _, rec := range all {
		rec.IsSystem = rec.UID < threshold
		if rec.IsSystem && !opts.IncludeSystem {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})

	logger.Debug("accounts enumerated",
		zap.Int("read", len(all)),
		zap.Int("returned", len(out)),
		zap.Bool("include_system", opts.IncludeSystem),
		zap.Int("min_regular_id", threshold),
	)
	return out, nil
}
