package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/spawn/cli"
	"github.com/grovetools/spawn/errors"
	"github.com/grovetools/spawn/logging"
	"github.com/grovetools/spawn/runner"
	"github.com/grovetools/spawn/sessionlog"
)

// runOutput is the --json rendering of a runner.Result.
type runOutput struct {
	*runner.Result
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Duration string `json:"duration"`
}

// NewRunCmd creates the `run` command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command",
		Long: `Runs a command, echoing its output, and exits non-zero if it fails,
times out or cannot be started. With --save-log the invocation is recorded as a
session log that 'spawn sessions' can read back.`,
		Example: `# Bound a command to 30 seconds and keep a session log
spawn run --timeout 30s --save-log -- make test

# Start a long job in the background
spawn run --detach --save-log -- ./long-job.sh`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRunE,
	}

	cmd.Flags().Duration("timeout", 0, "Kill the command after this long (0 uses the configured default)")
	cmd.Flags().Bool("detach", false, "Start the command in the background and return immediately")
	cmd.Flags().Bool("save-log", false, "Persist a session log")
	cmd.Flags().String("log-dir", "", "Session log root")
	cmd.Flags().String("log-level", "", "Session log level: full, reduced")
	cmd.Flags().Bool("log-to-console", false, "Echo output to the console while persisting")
	cmd.Flags().BoolP("quiet", "q", false, "Do not echo command output")
	cmd.Flags().String("cwd", "", "Working directory for the command")
	cmd.Flags().StringArrayP("env", "e", nil, "Environment override KEY=VALUE (repeatable)")

	return cmd
}

func runRunE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)
	opts := cli.GetOptions(cmd)

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}

	runOpts, err := runOptionsFromFlags(cmd)
	if err != nil {
		return err
	}
	if opts.JSONOutput {
		quiet := false
		runOpts.Logging = &quiet
		runOpts.LogToConsole = &quiet
	}

	r := runner.New(
		runner.WithConfig(cfg),
		runner.WithReporter(sessionlog.LogReporter(logger)),
	)

	ctx := logging.WithEchoWriters(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	result, err := r.RunCommand(ctx, args[0], args[1:], runOpts)
	if err != nil {
		return err
	}

	if opts.JSONOutput {
		data, err := json.MarshalIndent(runOutput{
			Result:   result,
			Stdout:   string(result.Stdout),
			Stderr:   string(result.Stderr),
			Duration: result.Duration.Round(time.Millisecond).String(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if result.Detached || result.SessionID != "" {
		pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
		if result.Detached {
			pretty.Success(fmt.Sprintf("Started %s in the background", args[0]))
			pretty.Field("PID", result.PID)
		}
		if result.SessionID != "" {
			pretty.Field("Session", result.SessionID)
			pretty.Path("Log", result.LogPath)
		}
	}
	logger.WithField("duration", result.Duration).Debug("Run finished")
	return nil
}

// runOptionsFromFlags leaves config-backed options unset unless the flag was given.
func runOptionsFromFlags(cmd *cobra.Command) (runner.Options, error) {
	flags := cmd.Flags()

	var opts runner.Options
	opts.Cwd, _ = flags.GetString("cwd")
	opts.Detached, _ = flags.GetBool("detach")
	opts.Timeout, _ = flags.GetDuration("timeout")
	opts.LogDir, _ = flags.GetString("log-dir")

	if level, _ := flags.GetString("log-level"); level != "" {
		parsed, err := sessionlog.ParseLevel(level)
		if err != nil {
			return opts, errors.InvalidInput("log-level", err.Error())
		}
		opts.LogLevel = parsed
	}

	if flags.Changed("save-log") {
		v, _ := flags.GetBool("save-log")
		opts.SaveLog = &v
	}
	if flags.Changed("log-to-console") {
		v, _ := flags.GetBool("log-to-console")
		opts.LogToConsole = &v
	}
	if flags.Changed("quiet") {
		quiet, _ := flags.GetBool("quiet")
		echo := !quiet
		opts.Logging = &echo
		opts.LogToConsole = &echo
	}

	pairs, _ := flags.GetStringArray("env")
	if len(pairs) > 0 {
		opts.Env = make(map[string]string, len(pairs))
		for _, pair := range pairs {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return opts, errors.InvalidInput("env", fmt.Sprintf("expected KEY=VALUE, got %q", pair))
			}
			opts.Env[key] = value
		}
	}
	return opts, nil
}
