package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/offlinefirst/deskutil/pkg/keylog"
	"github.com/offlinefirst/deskutil/pkg/logging"
)

var (
	newKeySource  = keylog.DefaultSource
	signalContext = signal.NotifyContext
)

func (rc *RootCommand) newKeylogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keylog",
		Short: "Append every key press and release to the key log until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return rc.runKeylog(cmd.Context(), app)
		},
	}
}

func (rc *RootCommand) runKeylog(parent context.Context, app *AppContext) (err error) {
	cfg := app.Config

	diag, closeDiag, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Path:        cfg.Paths.ConsoleLog,
		Console:     rc.stderr,
		ErrorOutput: rc.stderr,
	})
	if err != nil {
		return &Error{Kind: KindUnexpected, Err: fmt.Errorf("initialise diagnostic log: %w", err)}
	}
	defer closeDiag()

	diag = diag.With(zap.String("session", newSessionID()))

	journal, journalErr := keylog.OpenJournal(cfg.Paths.KeyLog)
	if journalErr != nil {
		diag.Error("could not prepare key log", zap.Error(journalErr))
	}
	defer journal.Close()

	env := keylog.DetectEnvironment()
	diag.Info("keylogger started",
		zap.String("key_log", cfg.Paths.KeyLog),
		zap.String("console_log", cfg.Paths.ConsoleLog),
		zap.String("provider", env.Provider),
		zap.String("provider_status", env.Message),
		zap.Int("pid", os.Getpid()),
	)
	fmt.Fprintf(rc.stdout, "Recording key events to %s (Ctrl+C to stop)\n", cfg.Paths.KeyLog)

	var stats keylog.Stats
	started := timeNow()
	defer func() {
		if rec := recover(); rec != nil {
			diag.Error("keylogger crashed", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			err = &Error{Kind: KindUnexpected, Err: fmt.Errorf("panic: %v", rec), Reported: true}
		}
		diag.Info("keylogger stopped",
			zap.Int("received", stats.Received),
			zap.Int("recorded", stats.Recorded),
			zap.Int("failed", stats.Failed),
			zap.Duration("uptime", timeNow().Sub(started).Truncate(time.Second)),
		)
	}()

	recorder, err := keylog.NewRecorder(keylog.Options{
		Source:    newKeySource(timeNow),
		Journal:   journal,
		Logger:    diag,
		QueueSize: cfg.Keylog.QueueSize,
		Clock:     timeNow,
	})
	if err != nil {
		diag.Error("could not initialise recorder", zap.Error(err))
		return &Error{Kind: KindUnexpected, Err: err, Reported: true}
	}

	ctx, stop := signalContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err = recorder.Run(ctx)
	if err == nil {
		return nil
	}

	var panicErr *keylog.PanicError
	switch {
	case errors.Is(err, context.Canceled):
		diag.Info("keylogger interrupted")
		return nil
	case errors.As(err, &panicErr):
		diag.Error("key event source crashed", zap.Any("panic", panicErr.Value), zap.ByteString("stack", panicErr.Stack))
	case errors.Is(err, keylog.ErrAccessibilityPermission):
		diag.Error("key event source not permitted", zap.Error(err), zap.String("guidance", "grant Accessibility access to this terminal in System Settings > Privacy & Security"))
	default:
		diag.Error("key event source failed", zap.Error(err))
	}
	return &Error{Kind: KindUnexpected, Err: err, Reported: true}
}
