package keylog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var base = time.Date(2024, 5, 12, 9, 30, 0, 0, time.Local)

func scripted() []Event {
	return []Event{
		{Time: base, Name: "h", Type: KeyDown},
		{Time: base, Name: "h", Type: KeyUp},
		{Time: base.Add(time.Second), Name: "shift", Type: KeyDown},
		{Time: base.Add(time.Second), Name: "i", Type: KeyDown},
		{Time: base.Add(2 * time.Second), Name: "i", Type: KeyUp},
		{Time: base.Add(2 * time.Second), Name: "shift", Type: KeyUp},
	}
}

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestNewRecorderValidation(t *testing.T) {
	j := &Journal{path: "unused"}
	logger := zap.NewNop()

	_, err := NewRecorder(Options{Journal: j, Logger: logger, QueueSize: 1})
	require.Error(t, err)
	_, err = NewRecorder(Options{Source: ScriptedSource(), Logger: logger, QueueSize: 1})
	require.Error(t, err)
	_, err = NewRecorder(Options{Source: ScriptedSource(), Journal: j, QueueSize: 1})
	require.Error(t, err)
	_, err = NewRecorder(Options{Source: ScriptedSource(), Journal: j, Logger: logger})
	require.Error(t, err)
}

func TestRecorderWritesOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thing.txt")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	rec, err := NewRecorder(Options{Source: ScriptedSource(scripted()...), Journal: j, Logger: zap.NewNop(), QueueSize: 2})
	require.NoError(t, err)

	stats, err := rec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Stats{Received: 6, Recorded: 6}, stats)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Equal(t, []string{
		"[2024-05-12 09:30:00] Key h down",
		"[2024-05-12 09:30:00] Key h up",
		"[2024-05-12 09:30:01] Key shift down",
		"[2024-05-12 09:30:01] Key i down",
		"[2024-05-12 09:30:02] Key i up",
		"[2024-05-12 09:30:02] Key shift up",
	}, lines)
}

func TestRecorderStampsEventsWithoutTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thing.txt")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	rec, err := NewRecorder(Options{
		Source:    ScriptedSource(Event{Name: "q", Type: KeyDown}),
		Journal:   j,
		Logger:    zap.NewNop(),
		QueueSize: 1,
		Clock:     func() time.Time { return base },
	})
	require.NoError(t, err)
	_, err = rec.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[2024-05-12 09:30:00] Key q down\n", string(data))
}

func TestRecorderSurvivesJournalFailures(t *testing.T) {
	dir := t.TempDir()
	j, _ := OpenJournal(dir)
	logger, logs := newObservedLogger()

	rec, err := NewRecorder(Options{Source: ScriptedSource(scripted()...), Journal: j, Logger: logger, QueueSize: 4})
	require.NoError(t, err)

	stats, err := rec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Stats{Received: 6, Failed: 6}, stats)

	failures := logs.FilterMessage("failed to append key event").All()
	require.Len(t, failures, 6)
	require.Equal(t, "h", failures[0].ContextMap()["key"])
	require.Equal(t, "down", failures[0].ContextMap()["type"])
}

func TestRecorderDrainsQueueOnCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thing.txt")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	ctx, cancel := context.WithCancel(context.Background())
	source := SourceFunc(func(ctx context.Context, emit func(Event) error) error {
		for _, event := range scripted()[:3] {
			if err := emit(event); err != nil {
				return err
			}
		}
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	rec, err := NewRecorder(Options{Source: source, Journal: j, Logger: zap.NewNop(), QueueSize: 8})
	require.NoError(t, err)

	stats, err := rec.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, stats.Recorded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(string(data), "\n"))
}

func TestRecorderReportsSourceFailure(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "thing.txt"))
	require.NoError(t, err)
	defer j.Close()

	rec, err := NewRecorder(Options{
		Source:    failingSource(ErrSourceUnavailable),
		Journal:   j,
		Logger:    zap.NewNop(),
		QueueSize: 1,
	})
	require.NoError(t, err)

	_, err = rec.Run(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestRecorderRecoversSourcePanic(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "thing.txt"))
	require.NoError(t, err)
	defer j.Close()

	rec, err := NewRecorder(Options{
		Source: SourceFunc(func(ctx context.Context, emit func(Event) error) error {
			panic("tap exploded")
		}),
		Journal:   j,
		Logger:    zap.NewNop(),
		QueueSize: 1,
	})
	require.NoError(t, err)

	_, err = rec.Run(context.Background())
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	require.Equal(t, "tap exploded", panicErr.Value)
	require.NotEmpty(t, panicErr.Stack)
}

func TestRecorderWithConcurrentEmitters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thing.txt")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	source := SourceFunc(func(ctx context.Context, emit func(Event) error) error {
		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 50; k++ {
					if err := emit(Event{Time: base, Name: "x", Type: KeyDown}); err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						return
					}
				}
			}()
		}
		wg.Wait()
		return firstErr
	})

	rec, err := NewRecorder(Options{Source: source, Journal: j, Logger: zap.NewNop(), QueueSize: 3})
	require.NoError(t, err)
	stats, err := rec.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 200, stats.Recorded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		require.Equal(t, "[2024-05-12 09:30:00] Key x down", line)
	}
}

// failingSource builds a source that fails immediately with err.
func failingSource(err error) Source {
	return SourceFunc(func(ctx context.Context, emit func(Event) error) error { return err })
}
