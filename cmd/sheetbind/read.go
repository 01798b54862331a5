package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/schema"
)

type readFlags struct {
	shape    string
	sheets   []string
	headRows int
	keep     bool
}

type readOutput struct {
	Records  []recordOutput `yaml:"records"`
	Warnings []string       `yaml:"warnings,omitempty"`
}

type recordOutput struct {
	Sheet  string        `yaml:"sheet"`
	Row    int           `yaml:"row"`
	Values schema.Record `yaml:"values"`
}

func newReadCmd(a *app) *cobra.Command {
	var f readFlags
	cmd := &cobra.Command{
		Use:   "read [input.xlsx]",
		Short: "Print the records of a document as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd.Context(), args[0], f, cmd.Flags().Changed("head-rows"))
		},
	}
	cmd.Flags().StringVarP(&f.shape, "schema", "s", "", "YAML shape of the records (default: header titles)")
	cmd.Flags().StringSliceVar(&f.sheets, "sheet", nil, "Sheets to read, by name or #index (default: all)")
	cmd.Flags().IntVar(&f.headRows, "head-rows", 1, "Number of header rows")
	cmd.Flags().BoolVar(&f.keep, "keep-empty", false, "Keep rows without cells")
	return cmd
}

func (a *app) read(ctx context.Context, file string, f readFlags, headRowsSet bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := a.cfg.Reader()
	if headRowsSet {
		opts.HeadRows = f.headRows
	}
	opts.KeepEmptyRows = f.keep
	for _, s := range f.sheets {
		if strings.HasPrefix(s, "#") {
			if idx, err := strconv.Atoi(s[1:]); err == nil {
				opts.SheetIndexes = append(opts.SheetIndexes, idx)
				continue
			}
		}
		opts.Sheets = append(opts.Sheets, s)
	}
	if f.shape != "" {
		shape, err := schema.LoadShape(f.shape)
		if err != nil {
			return err
		}
		opts.Shape = &shape
	}

	src, err := a.openReader(file)
	if err != nil {
		return err
	}
	var out readOutput
	res, err := reader.New(a.registry, nil, a.logger).Read(ctx, src, opts, func(_ context.Context, rec reader.Record) error {
		out.Records = append(out.Records, recordOutput{Sheet: rec.Sheet, Row: rec.Row, Values: rec.Values})
		return nil
	})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}

	enc := yaml.NewEncoder(a.stdout)
	enc.SetIndent(2)
	if err = enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
