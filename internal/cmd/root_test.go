package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testPaths struct {
	dir        string
	config     string
	keyLog     string
	consoleLog string
	debugLog   string
	passwd     string
}

func writeTestConfig(t *testing.T) testPaths {
	t.Helper()
	dir := t.TempDir()
	p := testPaths{
		dir:        dir,
		config:     filepath.Join(dir, "deskutil.yaml"),
		keyLog:     filepath.Join(dir, "thing.txt"),
		consoleLog: filepath.Join(dir, "console.log"),
		debugLog:   filepath.Join(dir, "debug.txt"),
		passwd:     filepath.Join(dir, "passwd"),
	}
	content := fmt.Sprintf("paths:\n  key_log: %s\n  console_log: %s\n  debug_log: %s\nkeylog:\n  queue_size: 4\naccounts:\n  passwd_path: %s\n", p.keyLog, p.consoleLog, p.debugLog, p.passwd)
	require.NoError(t, os.WriteFile(p.config, []byte(content), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOutput(&stdout, &stderr)
	err := root.Execute(args)
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "deskutil ")
}

func TestVersionStringIncludesRuntime(t *testing.T) {
	origVersion, origGOOS := runtimeVersion, runtimeGOOS
	runtimeVersion = func() string { return "go1.24.0" }
	runtimeGOOS = func() string { return "plan9" }
	t.Cleanup(func() { runtimeVersion, runtimeGOOS = origVersion, origGOOS })

	require.Regexp(t, `^\S+ \(go1\.24\.0/plan9\)$`, versionString())
}

func TestConfigCommandPrintsResolvedYAML(t *testing.T) {
	paths := writeTestConfig(t)

	stdout, _, err := execute(t, "--config", paths.config, "config")
	require.NoError(t, err)
	require.Contains(t, stdout, "# source: "+paths.config)
	require.Contains(t, stdout, "queue_size: 4")
	require.Contains(t, stdout, "min_regular_id: 1000")
}

func TestUnknownConfigFileFails(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "config")
	require.Error(t, err)
	require.Equal(t, 1, ExitCode(err))
}

func TestCommandsRejectArguments(t *testing.T) {
	paths := writeTestConfig(t)
	_, _, err := execute(t, "--config", paths.config, "accounts", "extra")
	require.Error(t, err)
}

func TestInvalidLogLevelOverride(t *testing.T) {
	paths := writeTestConfig(t)
	_, _, err := execute(t, "--config", paths.config, "--log-level", "shout", "config")
	require.ErrorContains(t, err, "unsupported log level")
}

func TestExitCodeAndReporting(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))

	var buf bytes.Buffer
	reported := &Error{Kind: KindEnumeration, Err: errors.New("boom"), Reported: true}
	ReportError(&buf, fmt.Errorf("wrapped: %w", reported))
	require.Empty(t, buf.String())
	require.Equal(t, 1, ExitCode(reported))

	ReportError(&buf, errors.New("plain failure"))
	require.Equal(t, "Error: plain failure\n", buf.String())

	buf.Reset()
	ReportError(&buf, &Error{Kind: KindIO, Err: errors.New("disk gone")})
	require.Equal(t, "Error: disk gone\n", buf.String())
}

func TestRecoverAsError(t *testing.T) {
	run := func() (err error) {
		defer recoverAsError(&err)
		panic("kaboom")
	}
	err := run()
	var cmdErr *Error
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, KindUnexpected, cmdErr.Kind)
	require.False(t, cmdErr.Reported)
	require.Equal(t, "unexpected", cmdErr.Kind.String())
}
