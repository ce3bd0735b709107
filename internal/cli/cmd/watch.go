package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/berrythewa/xselq/internal/config"
	"github.com/berrythewa/xselq/internal/types"
	"github.com/berrythewa/xselq/internal/x11"
	"github.com/berrythewa/xselq/pkg/format"
)

// ownerWatcher is the part of x11.Watcher used by the watch command
type ownerWatcher interface {
	Atom(name string) (xproto.Atom, error)
	Watch(sel xproto.Atom) error
	Changes() <-chan x11.OwnerChange
	Close()
}

var openWatcher = func(display string, logger *zap.Logger) (ownerWatcher, error) {
	w, err := x11.NewWatcher(display, logger)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func newWatchCmd() *cobra.Command {
	var initial bool

	cmd := &cobra.Command{
		Use:   "watch [SELECTION ...]",
		Short: "Re-query selections whenever their owner changes",
		Long: `Watch selection ownership through the XFixes extension. Every time a
watched selection changes hands, or its owner goes away, the selection is
queried again and printed. Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunWatch(cmd.Context(), args, initial, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&initial, "initial", true, "print the current state before waiting for changes")
	return cmd
}

// RunWatch prints a fresh result for a selection each time its ownership
// changes, until ctx is done
func RunWatch(ctx context.Context, names []string, initial bool, out io.Writer) error {
	if len(names) == 0 {
		names = cfg.Selections
	}
	if len(names) == 0 {
		names = config.DefaultSelections
	}
	logger := GetZapLogger()

	formatter, err := newFormatter(out)
	if err != nil {
		return err
	}

	session, err := openSession(cfg.Display, logger)
	if err != nil {
		return connectError(cfg.Display, err)
	}
	defer session.Close()

	watcher, err := openWatcher(cfg.Display, logger)
	if err != nil {
		return fmt.Errorf("cannot watch selections: %w", err)
	}
	defer watcher.Close()

	byAtom := make(map[xproto.Atom]string, len(names))
	for _, name := range names {
		atom, err := watcher.Atom(name)
		if err != nil {
			return err
		}
		if err := watcher.Watch(atom); err != nil {
			return err
		}
		byAtom[atom] = name
	}

	resolver := newResolver(session)
	printed := 0
	emit := func(result *types.SelectionResult) error {
		recordResults(session.Display(), []*types.SelectionResult{result})
		if useJSON {
			return format.WriteJSON(out, result)
		}
		if printed > 0 {
			fmt.Fprintln(out)
		}
		printed++
		_, err := io.WriteString(out, formatter.FormatResult(result))
		return err
	}

	if initial {
		for _, name := range names {
			if err := emit(resolver.ResolveOne(ctx, name)); err != nil {
				return err
			}
		}
	}

	changes := watcher.Changes()
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			name, watched := byAtom[change.Selection]
			if !watched {
				continue
			}
			logger.Debug("Selection owner changed",
				zap.String("selection", name),
				zap.Uint32("owner", uint32(change.Owner)),
				zap.String("reason", change.Reason))

			if err := emit(resolver.ResolveOne(ctx, name)); err != nil {
				return err
			}
		}
	}
}
