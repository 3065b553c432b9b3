package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/spool/internal/models"
	"github.com/desertthunder/spool/internal/shared"
	"golang.org/x/time/rate"
)

// BatchOpts contains configuration for running one action across many accounts.
type BatchOpts struct {
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Actions started per second (default: 5)
}

// BatchResult summarizes a batch run. Results follow the order of the input accounts.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []Result
}

type batchJob struct {
	index int
	req   Request
}

type batchOutcome struct {
	index int
	res   Result
}

// Batch runs template once for every distinct account using a rate-limited worker pool.
//
// Each account appears in at most one job, so no account has two calls in flight.
// Individual failures are reported in the result; only setup errors and cancellation return an error.
func (d *Dispatcher) Batch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	accounts []string,
	template Request,
	opts BatchOpts,
) (*BatchResult, error) {
	if template.Action == models.ActionAddAccount {
		return nil, fmt.Errorf("%w: %s cannot be batched", shared.ErrInvalidArgument, template.Action)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	accounts = dedupe(accounts)
	total := len(accounts)
	result := &BatchResult{Total: total, Results: make([]Result, 0, total)}
	if total == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan batchJob, total)
	outcomes := make(chan batchOutcome, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go d.batchWorker(ctx, &wg, jobs, outcomes)
	}

	sendProgress(prog, queuedUpdate(total, template))

	var produceErr error
	produced := make(chan struct{})
	go func() {
		defer close(produced)
		defer close(jobs)
		for i, account := range accounts {
			if err := limiter.Wait(ctx); err != nil {
				produceErr = err
				return
			}

			req := template
			req.Account = account
			jobs <- batchJob{index: i, req: req}
			sendProgress(prog, runningUpdate(i+1, total, account))
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	collected := make([]batchOutcome, 0, total)
	for out := range outcomes {
		collected = append(collected, out)
		if out.res.OK() {
			result.Succeeded++
		} else {
			result.Failed++
		}
		sendProgress(prog, resultUpdate(len(collected), total, out.res))
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	for _, out := range collected {
		result.Results = append(result.Results, out.res)
	}

	<-produced
	if produceErr == nil && len(collected) < total {
		produceErr = ctx.Err()
	}
	if produceErr != nil {
		return result, fmt.Errorf("batch interrupted after %d of %d accounts: %w", len(collected), total, produceErr)
	}
	return result, nil
}

// batchWorker is a worker goroutine that runs requests from the jobs channel.
func (d *Dispatcher) batchWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan batchJob, outcomes chan<- batchOutcome) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		outcomes <- batchOutcome{index: job.index, res: d.Run(ctx, job.req)}
	}
}

func dedupe(accounts []string) []string {
	seen := make(map[string]bool, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
