package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appconfig "github.com/saker-ai/armscript/internal/config"
	applogger "github.com/saker-ai/armscript/internal/logger"
	"github.com/saker-ai/armscript/internal/replay"
	"github.com/saker-ai/armscript/internal/session"
	"github.com/saker-ai/armscript/internal/storage"
	"github.com/saker-ai/armscript/pkg/runtime"
)

var (
	callsPath     string
	structuredOut string
	executableOut string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a transcript of tool calls and write both artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appconfig.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load armscript config: %w", err)
		}
		logger, err := applogger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("configure logger: %w", err)
		}
		defer logger.Sync()

		exporter, err := runtime.NewExporter(cfg)
		if err != nil {
			return err
		}
		calls, err := replay.Load(callsPath)
		if err != nil {
			return err
		}

		if structuredOut == "" {
			structuredOut = cfg.Output.StructuredPath
		}
		if executableOut == "" {
			executableOut = cfg.Output.ExecutablePath
		}

		sess := session.New(storage.NewSessionID(), session.Options{}, exporter, logger)
		_, runErr := replay.Run(sess, calls, logger)
		artifacts, err := sess.ExportTo(structuredOut, executableOut)
		if err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d commands to %s and %s\n",
			artifacts.Commands, artifacts.StructuredPath, artifacts.ExecutablePath)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&callsPath, "calls", "", "JSON or YAML list of {name, arguments} tool calls")
	runCmd.Flags().StringVar(&structuredOut, "structured-out", "", "structured commands destination (default: output.structured_path)")
	runCmd.Flags().StringVar(&executableOut, "executable-out", "", "executable script destination (default: output.executable_path)")
	_ = runCmd.MarkFlagRequired("calls")
}
