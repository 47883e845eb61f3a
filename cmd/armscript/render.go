package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appconfig "github.com/saker-ai/armscript/internal/config"
	"github.com/saker-ai/armscript/internal/command"
	"github.com/saker-ai/armscript/internal/export"
	"github.com/saker-ai/armscript/pkg/runtime"
)

var (
	renderFrom string
	renderOut  string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Rebuild an executable script from a structured commands file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appconfig.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load armscript config: %w", err)
		}
		exporter, err := runtime.NewExporter(cfg)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(renderFrom)
		if err != nil {
			return fmt.Errorf("read structured commands %s: %w", renderFrom, err)
		}
		cmds, err := command.DecodeStructured(data)
		if err != nil {
			return err
		}
		lines, err := export.ExecutableLines(cmds)
		if err != nil {
			return err
		}

		if renderOut == "" || renderOut == "-" {
			return exporter.WriteExecutable(cmd.OutOrStdout(), lines)
		}
		file, err := os.Create(renderOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", renderOut, err)
		}
		defer file.Close()
		return exporter.WriteExecutable(file, lines)
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderFrom, "from", "", "structured commands file (JSON or YAML)")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "script destination, stdout when empty")
	_ = renderCmd.MarkFlagRequired("from")
}
