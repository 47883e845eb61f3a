package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "armscript",
	Short: "Record robot-arm actions as structured commands and an executable script",
	Long: `armscript turns decided robot-arm tool calls (Cartesian moves, joint
rotations, gripper actions) into two aligned artifacts: a structured command
list and an Interbotix Python script that replays the same motion.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: conf.yaml found from the working directory)")
	rootCmd.AddCommand(serveCmd, runCmd, renderCmd, toolsCmd)
}
