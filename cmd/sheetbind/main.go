// Command sheetbind reads, writes and fills xlsx documents.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/geoirb/sheetbind/internal/config"
	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/logger"
)

type app struct {
	cfg      config.Options
	registry *convert.Registry
	logger   log.Logger

	backend string
	stdout  io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout}
	rootCmd := &cobra.Command{
		Use:   "sheetbind",
		Short: "Bind records and templates to xlsx documents",
		Long: `sheetbind streams records out of and into xlsx documents and fills
xlsx templates with placeholders like {items.name}.
Defaults are read from SHEETBIND_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) (err error) {
			if a.cfg, err = config.Load(); err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			if a.logger, err = logger.New(stderr, a.cfg.LogFormat, a.cfg.LogLevel); err != nil {
				return err
			}
			a.logger = log.With(a.logger, "command", cmd.Name())
			cfg, err := a.cfg.Registry()
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			a.registry = convert.NewRegistry(cfg)
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&a.backend, "backend", backendExcel, "Document backend: excel or tealeg")

	rootCmd.AddCommand(
		newReadCmd(a),
		newWriteCmd(a),
		newFillCmd(a),
		newSchemaCmd(a),
	)
	return rootCmd
}
