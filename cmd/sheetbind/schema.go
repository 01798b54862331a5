package main

import (
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/geoirb/sheetbind/internal/schema"
)

type columnOutput struct {
	Field  string   `yaml:"field"`
	Column string   `yaml:"column"`
	Type   string   `yaml:"type,omitempty"`
	Titles []string `yaml:"titles"`
}

type schemaOutput struct {
	HeadRows int            `yaml:"head_rows"`
	Columns  []columnOutput `yaml:"columns"`
	Merges   []string       `yaml:"merges,omitempty"`
}

func newSchemaCmd(a *app) *cobra.Command {
	var opts schema.Options
	cmd := &cobra.Command{
		Use:   "schema [shape.yaml]",
		Short: "Print the resolved columns of a shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.AutoMergeHead = a.cfg.AutoMergeHead
			return a.schema(args[0], opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.IncludeNames, "include", nil, "Fields to include")
	cmd.Flags().StringSliceVar(&opts.ExcludeNames, "exclude", nil, "Fields to exclude")
	cmd.Flags().BoolVar(&opts.OrderByInclude, "order-by-include", false, "Order columns by --include")
	return cmd
}

func (a *app) schema(file string, opts schema.Options) error {
	shape, err := schema.LoadShape(file)
	if err != nil {
		return err
	}
	s, err := schema.Resolve(shape, opts)
	if err != nil {
		return err
	}

	out := schemaOutput{HeadRows: s.HeadDepth}
	for _, c := range s.Columns {
		name, err := excelize.ColumnNumberToName(c.Col + 1)
		if err != nil {
			return err
		}
		out.Columns = append(out.Columns, columnOutput{
			Field:  c.Name,
			Column: name,
			Type:   string(c.Type),
			Titles: c.Titles,
		})
	}
	for _, m := range s.HeadMerges {
		first, err := excelize.CoordinatesToCellName(m.FirstCol+1, m.FirstRow+1)
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(m.LastCol+1, m.LastRow+1)
		if err != nil {
			return err
		}
		out.Merges = append(out.Merges, first+":"+last)
	}

	enc := yaml.NewEncoder(a.stdout)
	enc.SetIndent(2)
	if err = enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
