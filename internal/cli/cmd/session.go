package cmd

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/berrythewa/xselq/internal/selection"
	"github.com/berrythewa/xselq/internal/storage"
	"github.com/berrythewa/xselq/internal/types"
	"github.com/berrythewa/xselq/internal/x11"
	"github.com/berrythewa/xselq/pkg/format"
)

// querySession is the part of x11.Session the commands rely on
type querySession interface {
	selection.Conn
	Display() string
	Close()
}

// openSession and openStore are replaced in tests
var (
	openSession = func(display string, logger *zap.Logger) (querySession, error) {
		session, err := x11.Open(display, logger)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	openStore = func(dbPath string, keepItems int, logger *zap.Logger) (storage.HistoryStore, error) {
		return storage.NewBoltStorage(storage.StorageConfig{
			DBPath:    dbPath,
			KeepItems: keepItems,
			Logger:    logger,
		})
	}
)

// newResolver builds a resolver over conn from the shared config
func newResolver(conn selection.Conn) *selection.Resolver {
	return selection.NewResolver(conn, selection.Options{
		Policy: selection.Policy{
			Attempts: cfg.Poll.Attempts,
			Delay:    cfg.Poll.Delay(),
		},
		CacheAtoms:   cfg.Atoms.Cache,
		NameFallback: cfg.Owner.NameFallback,
		Logger:       GetZapLogger(),
	})
}

// newFormatter builds a formatter for w from the shared output flags
func newFormatter(w io.Writer) (*format.Formatter, error) {
	mode, err := format.ParseColorMode(colorMode)
	if err != nil {
		return nil, err
	}
	return format.New(format.Options{
		UseColors: mode.UseColors(w),
		ShowAtoms: showAtoms,
	}), nil
}

// displayName returns the display a session is talking to
func displayName(display string) string {
	if display != "" {
		return display
	}
	return os.Getenv("DISPLAY")
}

// recordResults stores results when history is enabled. Failures are
// logged and never fail the query.
func recordResults(display string, results []*types.SelectionResult) {
	if !cfg.History.Enabled || len(results) == 0 {
		return
	}
	logger := GetZapLogger()

	store, err := openStore(cfg.History.DBPath, cfg.History.KeepItems, logger)
	if err != nil {
		logger.Warn("History unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	if _, err := store.SaveResults(displayName(display), results); err != nil {
		logger.Warn("Failed to record history", zap.Error(err))
	}
}

// connectError turns a session open failure into the message users see
func connectError(display string, err error) error {
	return fmt.Errorf("unable to open display %q: %w", displayName(display), err)
}
