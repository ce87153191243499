package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/mcp-toolbox/protocol"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcp-toolbox %s (protocol %s)\n", version, protocol.MCPVersion)
		},
	}
}
