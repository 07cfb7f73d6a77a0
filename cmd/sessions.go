package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/spawn/cli"
	"github.com/grovetools/spawn/logging"
	"github.com/grovetools/spawn/sessionlog"
	"github.com/grovetools/spawn/util/pathutil"
)

// NewSessionsCmd creates the `sessions` command group.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect persisted session logs",
	}
	cmd.PersistentFlags().String("log-dir", "", "Session log root (default: configured or state directory)")

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsFollowCmd())
	cmd.AddCommand(newSessionsWatchCmd())
	return cmd
}

// logRoot resolves --log-dir, then log_dir from spawn.yml, then the default.
func logRoot(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("log-dir"); dir != "" {
		return pathutil.MustExpand(dir)
	}
	if cfg, err := cli.LoadConfig(cmd); err == nil && cfg.LogDir != "" {
		return pathutil.MustExpand(cfg.LogDir)
	}
	return sessionlog.DefaultRoot()
}

func newSessionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			limit, _ := cmd.Flags().GetInt("limit")
			root := logRoot(cmd)

			infos, err := sessionlog.ListRecentSessions(root, limit)
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			if len(infos) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No sessions in %s\n", root)
				return nil
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{
					info.SessionID,
					info.StartedAt.Local().Format("2006-01-02 15:04:05"),
					pretty.Status(sessionStatus(root, info.SessionID)),
					commandLine(info.Command, info.Arguments, 60),
				})
			}
			pretty.Table([]string{"SESSION", "STARTED", "STATUS", "COMMAND"}, rows)
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", sessionlog.DefaultListLimit, "Maximum number of sessions")
	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print every entry of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			session, err := sessionlog.ReadSession(logRoot(cmd), args[0])
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return writeJSON(cmd.OutOrStdout(), struct {
					*sessionlog.Session
					Status string `json:"status"`
				}{session, session.Status()})
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.Field("Session", session.SessionID)
			pretty.Field("Command", commandLine(session.Command, session.Arguments, 0))
			if session.WorkingDirectory != "" {
				pretty.Path("Directory", session.WorkingDirectory)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", pretty.Status(session.Status()))
			pretty.Path("Log", session.Path)
			pretty.Divider()
			for _, entry := range session.Entries {
				printEntry(cmd.OutOrStdout(), entry, session.StartedAt)
			}
			return nil
		},
	}
}

func newSessionsFollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <session-id>",
		Short: "Stream a session's entries until it ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			out := cmd.OutOrStdout()

			var started time.Time
			err := sessionlog.Follow(cmd.Context(), logRoot(cmd), args[0], func(entry sessionlog.Entry) error {
				if opts.JSONOutput {
					data, err := json.Marshal(entry)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					return nil
				}
				if entry.Type == sessionlog.EntrySessionStart {
					started = entry.Timestamp
				}
				printEntry(out, entry, started)
				return nil
			})
			if err != nil {
				return err
			}
			return nil
		},
	}
}

func newSessionsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print each new session as it starts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			out := cmd.OutOrStdout()

			err := sessionlog.Watch(cmd.Context(), logRoot(cmd), func(info sessionlog.SessionInfo) {
				if opts.JSONOutput {
					data, _ := json.Marshal(info)
					fmt.Fprintln(out, string(data))
					return
				}
				fmt.Fprintf(out, "%s  %s  %s\n",
					info.StartedAt.Local().Format("15:04:05"), info.SessionID, commandLine(info.Command, info.Arguments, 60))
			})
			if err != nil {
				return err
			}
			return nil
		},
	}
}

func sessionStatus(root, id string) string {
	session, err := sessionlog.ReadSession(root, id)
	if err != nil {
		return "unknown"
	}
	return session.Status()
}

// printEntry renders one entry as "+elapsed type detail".
func printEntry(w io.Writer, entry sessionlog.Entry, started time.Time) {
	offset := ""
	if !started.IsZero() {
		offset = "+" + entry.Timestamp.Sub(started).Round(time.Millisecond).String()
	}

	var detail string
	switch entry.Type {
	case sessionlog.EntrySessionStart:
		detail = commandLine(entry.Command, entry.Arguments, 0)
	case sessionlog.EntrySpawned:
		detail = fmt.Sprintf("pid %d", entry.PID)
	case sessionlog.EntryStdout, sessionlog.EntryStderr:
		detail = strings.TrimRight(entry.Text, "\n")
	case sessionlog.EntryError:
		detail = entry.Message
	case sessionlog.EntrySessionEnd:
		switch {
		case entry.Signal != "":
			detail = "signal " + entry.Signal
		case entry.ExitCode != nil:
			detail = fmt.Sprintf("exit %d", *entry.ExitCode)
		}
		detail += fmt.Sprintf(" after %s", (time.Duration(entry.DurationMs) * time.Millisecond).String())
	}
	fmt.Fprintf(w, "%-10s %-13s %s\n", offset, entry.Type, detail)
}

// commandLine joins a command and its arguments, truncated to max runes when max > 0.
func commandLine(command string, args []string, max int) string {
	line := strings.TrimSpace(command + " " + strings.Join(args, " "))
	if max > 0 {
		if runes := []rune(line); len(runes) > max {
			return string(runes[:max-3]) + "..."
		}
	}
	return line
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
