//go:build !darwin

package keylog

import (
	"context"
	"time"
)

// DefaultSource returns a source that fails immediately with ErrSourceUnavailable.
func DefaultSource(clock func() time.Time) Source {
	return SourceFunc(func(ctx context.Context, emit func(Event) error) error {
		return ErrSourceUnavailable
	})
}
