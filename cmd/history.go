package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spool/internal/formatter"
	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded actions, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	criteria := map[string]any{
		"account_id": strings.TrimSpace(cmd.String("account")),
		"limit":      cmd.Int("limit"),
	}
	if a := cmd.String("action"); a != "" {
		action, err := models.ParseAction(a)
		if err != nil {
			return err
		}
		criteria["action"] = action
	}
	if cmd.Bool("failed") {
		criteria["failed"] = true
	}

	r.openHistory()
	if r.history == nil {
		return fmt.Errorf("%w: action history is unavailable", shared.ErrServiceUnavailable)
	}

	records, err := r.history.List(criteria)
	if err != nil {
		return err
	}

	if out := cmd.String("output"); out != "" || cmd.IsSet("output") {
		path, err := formatter.WriteHistoryExport(records, format, out)
		if err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "records", len(records))
		return r.writePlain("✓ Exported %d records to %s\n", len(records), path)
	}

	return formatter.WriteHistory(r.output, records, format)
}
