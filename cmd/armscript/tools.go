package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/saker-ai/armscript/internal/dispatch"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool definitions offered to the decision process",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dispatch.Tools())
	},
}
