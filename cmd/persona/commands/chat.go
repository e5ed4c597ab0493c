// ABOUTME: CLI command to send one chat turn from the terminal
// ABOUTME: Prints the routed persona, the thread id, and the reply
package commands

import (
	"fmt"
	"strings"

	"github.com/harper/persona-chat/internal/models"
	"github.com/spf13/cobra"
)

var (
	chatUser   string
	chatThread string
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message and print the persona's reply",
		Long: `Send one message and print the persona's reply.

Pass --thread with the thread id from the previous reply to continue a
conversation. Persona cues in the message move the conversation to that
persona's thread.

Examples:
  persona chat --user alice "I have a startup idea"
  persona chat --user alice --thread <id> "act like a skeptical investor"
  persona chat --user alice --format json "go back to my mentor"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringVarP(&chatUser, "user", "u", "", "User id (required)")
	cmd.Flags().StringVarP(&chatThread, "thread", "t", "", "Current thread id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.Executor.HandleTurn(cmd.Context(), models.TurnRequest{
		UserID:   chatUser,
		Message:  strings.Join(args, " "),
		ThreadID: chatThread,
	})
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	if !quiet {
		fmt.Fprintf(out, "[%s] thread %s (%s)\n\n", res.Persona, res.ThreadID, res.Scenario)
	}
	fmt.Fprintln(out, res.Response)
	return nil
}
