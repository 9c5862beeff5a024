package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/dataset"
	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
)

type joinOptions struct {
	primaryKey      []string
	secondaryKey    []string
	prefer          string
	allowUnresolved bool
	out             string
	format          string
}

func newJoinCmd() *cobra.Command {
	var opts joinOptions

	cmd := &cobra.Command{
		Use:   "join PRIMARY SECONDARY",
		Short: "Join a secondary file into a primary file and export the result",
		Long: `Join keeps every row of PRIMARY in order, fills in columns from the
SECONDARY row with the same key, and appends unmatched SECONDARY rows.
Cells that both files fill with different values are conflicts: they keep
the primary value unless --prefer picks a side for all of them.`,
		Example: `  databind join customers.csv orders.xlsx --primary-key id --secondary-key customer_id
  databind join a.csv b.csv --primary-key first,last --secondary-key fname,lname --prefer secondary -o merged.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.primaryKey, "primary-key", nil, "Key columns of the primary file, in order (required)")
	cmd.Flags().StringSliceVar(&opts.secondaryKey, "secondary-key", nil, "Key columns of the secondary file, paired with --primary-key (required)")
	cmd.Flags().StringVar(&opts.prefer, "prefer", "", "Resolve every conflict with this source: primary or secondary")
	cmd.Flags().BoolVar(&opts.allowUnresolved, "allow-unresolved", false, "Write the result even if conflicts remain, keeping primary values")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output path (default <primary>-<secondary>-joined.<format>)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: xlsx or csv (default from --out, else xlsx)")
	_ = cmd.MarkFlagRequired("primary-key")
	_ = cmd.MarkFlagRequired("secondary-key")

	return cmd
}

func runJoin(cmd *cobra.Command, primaryPath, secondaryPath string, opts joinOptions) error {
	var prefer merge.Source
	if opts.prefer != "" {
		src, err := merge.ParseSource(opts.prefer)
		if err != nil {
			return err
		}
		prefer = src
	}

	var format sheet.Format
	if opts.format != "" {
		f, err := sheet.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	}

	primaryKey := trimAll(opts.primaryKey)
	secondaryKey := trimAll(opts.secondaryKey)
	if err := merge.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}

	primary, secondary, err := loadPair(cmd.Context(), primaryPath, secondaryPath)
	if err != nil {
		return err
	}
	if err := checkColumns(primary, primaryKey, "primary"); err != nil {
		return err
	}
	if err := checkColumns(secondary, secondaryKey, "secondary"); err != nil {
		return err
	}

	result, err := merge.Join(primary, secondary, primaryKey, secondaryKey)
	if err != nil {
		return err
	}

	resolutions := make(merge.Resolutions, len(result.Conflicts))
	if prefer != "" {
		for _, c := range result.Conflicts {
			resolutions[c.RowIndex] = prefer
		}
	}
	if pending := result.Unresolved(resolutions); len(pending) > 0 && !opts.allowUnresolved {
		return fmt.Errorf("%w: %d of %d conflicts still need a source (use --prefer or --allow-unresolved)",
			core.ErrUnresolvedConflicts, len(pending), len(result.Conflicts))
	}

	out := opts.out
	if out == "" {
		if format == "" {
			format = sheet.FormatXLSX
		}
		out = sheet.ExportFileName(primaryPath, secondaryPath) + format.Ext()
	}

	final := result.Resolve(resolutions)
	if err := sheet.WriteFile(out, final, format); err != nil {
		return err
	}

	slog.Debug("join written", "path", out, "rows", final.Len(), "conflicts", len(result.Conflicts))

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Joined %d rows (%d matched, %d primary only, %d secondary only)\n",
		final.Len(), result.Stats.Matched, result.Stats.PrimaryOnly, result.Stats.SecondaryOnly)
	if n := result.Stats.DuplicateSecondaryKeys; n > 0 {
		fmt.Fprintf(w, "Warning: %d secondary rows shared a key with an earlier row and replaced it\n", n)
	}
	if n := len(result.Conflicts); n > 0 {
		if prefer != "" {
			fmt.Fprintf(w, "Resolved %d conflicts with %s values\n", n, prefer)
		} else {
			fmt.Fprintf(w, "Left %d conflicts unresolved (primary values kept)\n", n)
		}
	}
	_, err = fmt.Fprintf(w, "Wrote %s\n", out)
	return err
}

// loadPair parses both files concurrently.
func loadPair(ctx context.Context, primaryPath, secondaryPath string) (*dataset.Dataset, *dataset.Dataset, error) {
	var primary, secondary *dataset.Dataset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, _, err := loadFile(gctx, primaryPath)
		if err != nil {
			return fmt.Errorf("primary file: %w", err)
		}
		primary = d
		return nil
	})
	g.Go(func() error {
		d, _, err := loadFile(gctx, secondaryPath)
		if err != nil {
			return fmt.Errorf("secondary file: %w", err)
		}
		secondary = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return primary, secondary, nil
}

func checkColumns(d *dataset.Dataset, cols []string, side string) error {
	var missing []string
	for _, c := range cols {
		if !d.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s file has no column %s (columns: %s)",
			core.ErrUnknownColumn, side, strings.Join(missing, ", "), strings.Join(d.Columns, ", "))
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
