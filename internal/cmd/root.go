package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/offlinefirst/deskutil/internal/buildinfo"
	"github.com/offlinefirst/deskutil/pkg/config"
	"github.com/offlinefirst/deskutil/pkg/logging"
)

const skipInitAnnotation = "skip_init"

// AppContext exposes lazily initialised configuration and logging facilities.
type AppContext struct {
	Config config.Config
	Logger *zap.Logger
}

// RootCommand wires the cobra command tree to configurable output streams.
type RootCommand struct {
	cmd         *cobra.Command
	stdout      io.Writer
	stderr      io.Writer
	appCtx      *AppContext
	closeLogger func() error
	configPath  string
	logLevel    string
	logFormat   string
}

var (
	timeNow      = time.Now
	newSessionID = uuid.NewString
)

// NewRootCommand constructs the CLI dispatcher with its subcommands and global flags.
func NewRootCommand() *RootCommand {
	rc := &RootCommand{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	root := &cobra.Command{
		Use:           "deskutil",
		Short:         "Local desktop utilities: key event journal and account report",
		Version:       versionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipInitAnnotation] == "true" {
				return nil
			}
			_, err := rc.ensureAppContext()
			return err
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&rc.configPath, "config", "", "Path to config file (default: ./deskutil.yaml if present)")
	root.PersistentFlags().StringVar(&rc.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&rc.logFormat, "log-format", "", "Override log output format (console, json)")

	root.AddCommand(
		rc.newKeylogCommand(),
		rc.newAccountsCommand(),
		rc.newConfigCommand(),
		rc.newVersionCommand(),
	)

	rc.cmd = root
	return rc
}

// SetOutput redirects the streams used by every subcommand.
func (rc *RootCommand) SetOutput(stdout, stderr io.Writer) {
	rc.stdout = stdout
	rc.stderr = stderr
}

// Execute parses args and dispatches to a subcommand.
func (rc *RootCommand) Execute(args []string) error {
	defer rc.release()

	rc.cmd.SetArgs(args)
	rc.cmd.SetOut(rc.stdout)
	rc.cmd.SetErr(rc.stderr)
	return rc.cmd.ExecuteContext(context.Background())
}

func (rc *RootCommand) ensureAppContext() (*AppContext, error) {
	if rc.appCtx != nil {
		return rc.appCtx, nil
	}

	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, err
	}

	if rc.logLevel != "" {
		lvl, err := config.NormalizeLogLevel(rc.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Level = lvl
	}
	if rc.logFormat != "" {
		format, err := config.NormalizeFormat(rc.logFormat)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Format = format
	}

	logger, closeLogger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Console:     rc.stderr,
		ErrorOutput: rc.stderr,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded", zap.String("source", cfg.Source), zap.String("key_log", cfg.Paths.KeyLog), zap.String("debug_log", cfg.Paths.DebugLog))

	rc.appCtx = &AppContext{Config: cfg, Logger: logger}
	rc.closeLogger = closeLogger
	return rc.appCtx, nil
}

func (rc *RootCommand) release() {
	if rc.closeLogger != nil {
		_ = rc.closeLogger()
		rc.closeLogger = nil
	}
	rc.appCtx = nil
}

func versionString() string {
	v := buildinfo.Version()
	if commit := buildinfo.Commit(); commit != "" {
		v += "+" + commit
	}
	return fmt.Sprintf("%s (%s/%s)", v, runtimeVersion(), runtimeGOOS())
}

// runtimeVersion is extracted for testability.
var runtimeVersion = func() string { return runtime.Version() }

// runtimeGOOS is extracted for testability.
var runtimeGOOS = func() string { return runtime.GOOS }
