package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/berrythewa/xselq/internal/config"
	"github.com/berrythewa/xselq/internal/types"
	"github.com/berrythewa/xselq/pkg/format"
)

// RunQuery resolves each selection name in order and prints the results
// to out. With no names the configured selections are used. Only a
// failure to reach the X server is returned as an error; per-selection
// failures are printed as degraded entries.
func RunQuery(ctx context.Context, names []string, out io.Writer) error {
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

	resolver := newResolver(session)

	results := make([]*types.SelectionResult, 0, len(names))
	for i, name := range names {
		result := resolver.ResolveOne(ctx, name)
		results = append(results, result)

		if useJSON {
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		// print as we go so a slow owner does not hold back earlier results
		if _, err := io.WriteString(out, formatter.FormatResult(result)); err != nil {
			return err
		}
	}

	if useJSON {
		if err := format.WriteJSON(out, results); err != nil {
			return err
		}
	}

	logger.Debug("Query finished", zap.Int("selections", len(results)))
	recordResults(session.Display(), results)
	return nil
}
