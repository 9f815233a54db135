package main

import (
	"fmt"

	"github.com/cuemby/coldb/pkg/client"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Bulk-load a CSV file into a running server",
	Long: `Dial a running coldb server's DSL socket and issue load("path"),
staging every row in memory before appending it to its columns so a parse
failure partway through the file leaves every table in its prior
consistent state.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().String("socket", "./data/coldb.sock", "DSL socket path")
}

func runLoad(cmd *cobra.Command, args []string) error {
	socketPath, _ := cmd.Flags().GetString("socket")
	path := args[0]

	c, err := client.Dial(socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer c.Close()

	msg, err := c.Load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	fmt.Println(msg)
	return nil
}
