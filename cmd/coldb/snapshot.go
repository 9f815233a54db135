package main

import (
	"fmt"

	"github.com/cuemby/coldb/pkg/client"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Force an out-of-band snapshot against a running server",
	Long: `Dial a running coldb server's DSL socket and issue the snapshot
admin verb, flushing its columns and catalog to disk without stopping it.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().String("socket", "./data/coldb.sock", "DSL socket path")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	socketPath, _ := cmd.Flags().GetString("socket")

	c, err := client.Dial(socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer c.Close()

	if err := c.Snapshot(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	fmt.Println("snapshot complete")
	return nil
}
