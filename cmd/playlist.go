package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
	"github.com/desertthunder/spool/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate creates a public playlist on one account. Empty flags fall back to the configured defaults.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	return r.run(ctx, tasks.Request{
		Action:      models.ActionCreatePlaylist,
		Account:     strings.TrimSpace(cmd.StringArg("account")),
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
	})
}

// PlaylistAdd adds one track to a playlist from one account.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	return r.run(ctx, tasks.Request{
		Action:     models.ActionAddTrack,
		Account:    strings.TrimSpace(cmd.StringArg("account")),
		PlaylistID: strings.TrimSpace(cmd.StringArg("playlist-id")),
		TrackURI:   strings.TrimSpace(cmd.StringArg("track-uri")),
	})
}

// Play starts playback of a track on the account's active device.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	return r.run(ctx, tasks.Request{
		Action:   models.ActionPlayTrack,
		Account:  strings.TrimSpace(cmd.StringArg("account")),
		TrackURI: strings.TrimSpace(cmd.StringArg("track-uri")),
	})
}

// BatchPlay plays a track on every selected account.
func (r *Runner) BatchPlay(ctx context.Context, cmd *cli.Command) error {
	return r.batch(ctx, cmd, tasks.Request{
		Action:   models.ActionPlayTrack,
		TrackURI: strings.TrimSpace(cmd.StringArg("track-uri")),
	})
}

// BatchCreate creates a playlist on every selected account.
func (r *Runner) BatchCreate(ctx context.Context, cmd *cli.Command) error {
	return r.batch(ctx, cmd, tasks.Request{
		Action:      models.ActionCreatePlaylist,
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
	})
}

// BatchAdd adds a track to one playlist from every selected account.
func (r *Runner) BatchAdd(ctx context.Context, cmd *cli.Command) error {
	return r.batch(ctx, cmd, tasks.Request{
		Action:     models.ActionAddTrack,
		PlaylistID: strings.TrimSpace(cmd.StringArg("playlist-id")),
		TrackURI:   strings.TrimSpace(cmd.StringArg("track-uri")),
	})
}

func (r *Runner) batch(ctx context.Context, cmd *cli.Command, template tasks.Request) error {
	// The template is checked with a placeholder account so bad arguments fail before any work starts.
	probe := template
	probe.Account = "-"
	if err := probe.Validate(); err != nil {
		return err
	}

	d, err := r.dispatcher(false)
	if err != nil {
		return err
	}

	accounts := cmd.StringSlice("accounts")
	if len(accounts) == 0 {
		accounts = r.store.Accounts()
	}
	if len(accounts) == 0 {
		return fmt.Errorf("%w: no accounts stored", shared.ErrMissingArgument)
	}

	cfg := r.cfg()
	opts := tasks.BatchOpts{NumWorkers: cfg.App.Workers, RateLimit: cfg.App.RateLimit}
	if n := cmd.Int("workers"); n > 0 {
		opts.NumWorkers = n
	}
	if rate := cmd.Float("rate"); rate > 0 {
		opts.RateLimit = rate
	}
	asJSON := cmd.Bool("json")

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Debug("batch progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			if !asJSON && update.Phase != tasks.Running {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := d.Batch(ctx, progress, accounts, template, opts)
	close(progress)
	wg.Wait()

	if result != nil {
		if asJSON {
			if werr := r.writeJSON(batchSummary(result), true); werr != nil {
				return werr
			}
		} else {
			r.writePlainln("Done: %d succeeded, %d failed, %d total", result.Succeeded, result.Failed, result.Total)
		}
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d accounts failed", shared.ErrRemoteCall, result.Failed, result.Total)
	}
	return nil
}

type batchEntry struct {
	Account string `json:"account"`
	OK      bool   `json:"ok"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

type batchReport struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []batchEntry `json:"results"`
}

func batchSummary(result *tasks.BatchResult) batchReport {
	report := batchReport{
		Total:     result.Total,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Results:   make([]batchEntry, 0, len(result.Results)),
	}
	for _, res := range result.Results {
		report.Results = append(report.Results, batchEntry{
			Account: res.Request.Account,
			OK:      res.OK(),
			Value:   res.Value,
			Message: res.Message(),
		})
	}
	return report
}
