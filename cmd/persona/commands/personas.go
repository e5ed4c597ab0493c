// ABOUTME: CLI command to list the available personas
// ABOUTME: Optionally prints each persona's system prompt
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/harper/persona-chat/internal/persona"
	"github.com/spf13/cobra"
)

var showPrompts bool

// NewPersonasCmd creates the personas command
func NewPersonasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "List available personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := persona.All()
			out := cmd.OutOrStdout()

			if wantJSON() {
				return printJSON(out, all)
			}

			if showPrompts {
				for _, p := range all {
					fmt.Fprintf(out, "%s (%s)\n  %s\n\n", p.DisplayName, p.ID, p.SystemPrompt)
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tNAME\tDEFAULT\n")
			for _, p := range all {
				def := ""
				if p.ID == persona.Default {
					def = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.DisplayName, def)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&showPrompts, "prompts", false, "Show system prompts")

	return cmd
}
