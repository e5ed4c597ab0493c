// ABOUTME: Sync commands for the Charm-backed checkpoint cache
// ABOUTME: Provides status, now, wipe, and keys management
package commands

import (
	"fmt"

	"github.com/harper/persona-chat/internal/charm"
	"github.com/spf13/cobra"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage the Charm checkpoint cache",
		Long: `Manage the Charm checkpoint cache.

With cache.backend set to "charm", the latest checkpoint of every thread
is cached in a Charm KV store and synced across devices linked to the
same Charm account. The relational store stays the source of truth.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// openCharm connects to the KV store named in the cache config
func openCharm() (*charm.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := charm.NewClient(charm.Config{
		Host:     cfg.Cache.CharmHost,
		DBName:   cfg.Cache.CharmDB,
		AutoSync: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintln(out, "Check that your SSH keys are linked to a Charm account")
				return nil
			}

			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Host: %s\n", client.Config().Host)
			fmt.Fprintf(out, "Database: %s\n", client.Config().DBName)

			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local checkpoint cache",
		Long: `Completely wipe the local Charm cache.

Cached checkpoints are rebuilt from the relational store on the next
turn of each thread, so no conversation data is lost.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe the local checkpoint cache!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			client, err := openCharm()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe cache: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Local cache wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List cached checkpoint keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := openCharm()
			if err != nil {
				return err
			}
			defer client.Close()

			keys, err := client.ListKeys(charm.CheckpointPrefix)
			if err != nil {
				return fmt.Errorf("failed to list keys: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), keys)
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached checkpoints")
				return nil
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
