package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geoirb/sheetbind/internal/backend/excel"
	"github.com/geoirb/sheetbind/internal/fill"
)

type fillFlags struct {
	data   string
	output string
	sheets []string
}

func newFillCmd(a *app) *cobra.Command {
	var f fillFlags
	cmd := &cobra.Command{
		Use:   "fill [template.xlsx]",
		Short: "Fill the placeholders of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.fill(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "JSON or YAML data file")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output document")
	cmd.Flags().StringSliceVar(&f.sheets, "sheet", nil, "Sheets to fill (default: all)")
	cmd.MarkFlagRequired("data")
	cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) fill(ctx context.Context, template string, f fillFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.backend != backendExcel {
		return fmt.Errorf("fill is supported by the %s backend only", backendExcel)
	}
	var data interface{}
	if err := decodeFile(f.data, &data); err != nil {
		return err
	}

	t, err := excel.OpenTemplateFile(template)
	if err != nil {
		return err
	}
	defer t.Close()

	res, err := fill.New(a.registry, nil, a.logger).Fill(ctx, t, data, fill.Options{Sheets: f.sheets})
	if err != nil {
		return err
	}

	out, err := os.Create(f.output)
	if err != nil {
		return err
	}
	if err = t.Save(out); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(a.stdout, "warning: %s\n", w)
	}
	return nil
}
