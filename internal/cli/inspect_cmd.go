package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Krish120003/databind/internal/dataset"
	"github.com/Krish120003/databind/internal/sheet"
)

type inspectReport struct {
	File    string     `json:"file"`
	Info    sheet.Info `json:"info"`
	Columns []string   `json:"columns"`
}

func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the columns and row count of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, info, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			report := inspectReport{File: args[0], Info: info, Columns: d.Columns}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printInspect(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printInspect(w io.Writer, r inspectReport) error {
	fmt.Fprintf(w, "File:    %s\n", r.File)
	fmt.Fprintf(w, "Format:  %s\n", r.Info.Format)
	if r.Info.Sheet != "" {
		fmt.Fprintf(w, "Sheet:   %s\n", r.Info.Sheet)
	}
	fmt.Fprintf(w, "Rows:    %d\n", r.Info.Rows)
	if r.Info.SkippedRows > 0 {
		fmt.Fprintf(w, "Skipped: %d blank rows\n", r.Info.SkippedRows)
	}
	_, err := fmt.Fprintf(w, "Columns: %s\n", strings.Join(r.Columns, ", "))
	return err
}

// loadFile parses the spreadsheet at path.
func loadFile(ctx context.Context, path string) (*dataset.Dataset, sheet.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sheet.Info{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, info, err := sheet.ParseWithInfo(ctx, path, f)
	if err != nil {
		return nil, info, err
	}
	return d, info, nil
}
