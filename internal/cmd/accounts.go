package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/offlinefirst/deskutil/pkg/accounts"
	"github.com/offlinefirst/deskutil/pkg/config"
	"github.com/offlinefirst/deskutil/pkg/logging"
	"github.com/offlinefirst/deskutil/pkg/tee"
)

var newAccountDatabase = func(cfg config.Config) accounts.Database {
	return accounts.PasswdFile{Path: cfg.Accounts.PasswdPath}
}

// newConsoleRenderer detects the colour profile of the real console stream.
var newConsoleRenderer = func(w io.Writer) *lipgloss.Renderer {
	return lipgloss.NewRenderer(w)
}

func (rc *RootCommand) newAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Report local user accounts and duplicate the output into the debug log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rc.ensureAppContext()
			if err != nil {
				return err
			}
			return rc.runAccounts(app)
		},
	}
}

func (rc *RootCommand) runAccounts(app *AppContext) (err error) {
	defer recoverAsError(&err)
	cfg := app.Config

	out, err := tee.Open(tee.Options{
		Path:       cfg.Paths.DebugLog,
		MaxSizeMB:  cfg.DebugLog.MaxSizeMB,
		MaxBackups: cfg.DebugLog.MaxBackups,
		MaxAgeDays: cfg.DebugLog.MaxAgeDays,
		Compress:   cfg.DebugLog.Compress,
		Stdout:     rc.stdout,
		Stderr:     rc.stderr,
	})
	if err != nil {
		return &Error{Kind: KindIO, Err: fmt.Errorf("open debug log: %w", err)}
	}
	defer out.Close()

	logger, closeLogger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Console:     out.Stderr(),
		ErrorOutput: rc.stderr,
	})
	if err != nil {
		return &Error{Kind: KindUnexpected, Err: err}
	}
	defer closeLogger()

	db := newAccountDatabase(cfg)
	minID := cfg.Accounts.MinRegularID
	report := accounts.NewReport(out.Stdout(), newConsoleRenderer(rc.stdout))

	report.Banner("Local User Accounts", timeNow())

	regular, err := accounts.Enumerate(db, accounts.Options{MinRegularID: minID}, logger)
	if err != nil {
		return &Error{Kind: KindEnumeration, Err: err, Reported: true}
	}
	report.Section(fmt.Sprintf("Regular users (UID >= %d)", minID), len(regular))
	report.Records(regular, false)

	all, err := accounts.Enumerate(db, accounts.Options{IncludeSystem: true, MinRegularID: minID}, logger)
	if err != nil {
		return &Error{Kind: KindEnumeration, Err: err, Reported: true}
	}
	report.Section("All users (including system accounts)", len(all))
	report.Records(all, true)

	fmt.Fprintln(out.Stdout())
	report.Banner("End of User List", timeNow())

	if ferr := out.Flush(); ferr != nil {
		logger.Warn("debug log write failed", zap.Error(ferr))
	}
	return nil
}
