package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/writer"
)

type writeFlags struct {
	shape    string
	sheet    string
	output   string
	skipHead bool
}

func newWriteCmd(a *app) *cobra.Command {
	var f writeFlags
	cmd := &cobra.Command{
		Use:   "write [records.yaml|records.json]",
		Short: "Write a list of records to a new document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.write(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.shape, "schema", "s", "", "YAML shape of the records (default: sorted record keys)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "Sheet1", "Sheet name")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output document")
	cmd.Flags().BoolVar(&f.skipHead, "skip-head", false, "Do not write header rows")
	cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) write(ctx context.Context, file string, f writeFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var records []schema.Record
	if err := decodeFile(file, &records); err != nil {
		return err
	}
	target := writer.Target{Sheet: f.sheet}
	if f.shape != "" {
		shape, err := schema.LoadShape(f.shape)
		if err != nil {
			return err
		}
		target.Shape = &shape
	}

	wb, err := a.newWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	opts := a.cfg.Writer()
	opts.SkipHead = f.skipHead
	session := writer.New(wb, a.registry, nil, a.logger, opts)
	n, err := session.Write(ctx, target, writer.Records(records...))
	if err != nil {
		session.Close()
		return err
	}

	out, err := os.Create(f.output)
	if err != nil {
		return err
	}
	if err = session.Save(out); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%d records written to %s\n", n, f.output)
	return nil
}

// decodeFile reads JSON or, for .yaml and .yml files, YAML.
func decodeFile(file string, v interface{}) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	return nil
}
