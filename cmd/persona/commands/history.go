// ABOUTME: CLI command to browse a user's threads and messages
// ABOUTME: Lists threads, or one thread's messages with --thread
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	historyUser   string
	historyThread string
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a user's threads or one thread's messages",
		Long: `Show a user's threads or one thread's messages.

Examples:
  persona history --user alice
  persona history --user alice --thread <id>
  persona history --user alice --format json`,
		RunE: runHistory,
	}

	cmd.Flags().StringVarP(&historyUser, "user", "u", "", "User id (required)")
	cmd.Flags().StringVarP(&historyThread, "thread", "t", "", "Thread id to show messages for")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	out := cmd.OutOrStdout()

	if historyThread == "" {
		threads, err := a.History.Threads(ctx, historyUser)
		if err != nil {
			return fmt.Errorf("listing threads: %w", err)
		}
		if wantJSON() {
			return printJSON(out, threads)
		}
		if len(threads) == 0 {
			if !quiet {
				fmt.Fprintln(out, "No threads found")
			}
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "PERSONA\tUPDATED\tCREATED\tTHREAD ID\n")
		fmt.Fprintf(w, "-------\t-------\t-------\t---------\n")
		for _, t := range threads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Persona, formatTime(t.UpdatedAt), formatTime(t.CreatedAt), t.ThreadID)
		}
		w.Flush()

		if !quiet {
			fmt.Fprintf(out, "\nTotal: %d thread(s)\n", len(threads))
		}
		return nil
	}

	thread, messages, err := a.History.Thread(ctx, historyUser, historyThread)
	if err != nil {
		return fmt.Errorf("loading thread: %w", err)
	}
	if wantJSON() {
		return printJSON(out, map[string]any{"thread": thread, "messages": messages})
	}

	if !quiet {
		fmt.Fprintf(out, "Thread %s (%s)\n\n", thread.ThreadID, thread.Persona)
	}
	for _, m := range messages {
		fmt.Fprintf(out, "%-9s %s  %s\n", m.Role, m.CreatedAt.Local().Format("15:04:05"), truncate(m.Content, 200))
	}
	return nil
}
