package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/berrythewa/xselq/internal/storage"
	"github.com/berrythewa/xselq/pkg/format"
)

// HistoryFlags selects which recorded results are shown
type HistoryFlags struct {
	Limit     int
	Selection string
	Since     time.Duration
	Relative  bool
	Clear     bool
}

func historyCmd() *cobra.Command {
	var flags HistoryFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded selection queries",
		Long: `Show selection query results recorded with --record (or
history.enabled in the config file), newest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunHistory(flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", 20, "maximum number of records (0 = all)")
	cmd.Flags().StringVarP(&flags.Selection, "selection", "s", "", "only show this selection")
	cmd.Flags().DurationVar(&flags.Since, "since", 0, "only show records newer than this (e.g. 1h)")
	cmd.Flags().BoolVar(&flags.Relative, "relative", false, "show relative timestamps")
	cmd.Flags().BoolVar(&flags.Clear, "clear", false, "delete all recorded history")
	return cmd
}

// RunHistory prints or clears the recorded history
func RunHistory(flags HistoryFlags, out io.Writer) error {
	store, err := openStore(cfg.History.DBPath, cfg.History.KeepItems, GetZapLogger())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if flags.Clear {
		n, err := store.Count()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(out, "Deleted %d records\n", n)
		return nil
	}

	options := storage.HistoryOptions{
		Limit:     flags.Limit,
		Selection: flags.Selection,
	}
	if flags.Since > 0 {
		options.Since = time.Now().Add(-flags.Since)
	}

	records, err := store.GetHistory(options)
	if err != nil {
		return err
	}

	if useJSON {
		return format.WriteJSON(out, records)
	}

	mode, err := format.ParseColorMode(colorMode)
	if err != nil {
		return err
	}
	formatter := format.New(format.Options{
		UseColors:    mode.UseColors(out),
		ShowAtoms:    showAtoms,
		RelativeTime: flags.Relative,
	})
	_, err = io.WriteString(out, formatter.FormatHistory(records))
	return err
}
