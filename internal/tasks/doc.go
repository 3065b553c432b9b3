// Package tasks runs pool actions off the caller's goroutine and fans them out across accounts.
//
// # Requests
//
// A [Request] names one [models.Action] and the arguments it needs. [Dispatcher.Run] validates
// the request, executes it against an [Actions] implementation (usually services.Manager) and
// returns a [Result] whose [Result.Message] is the line the status log shows.
//
// Invalid requests fail fast with one of the Err* validation messages and never reach the
// network or the history.
//
// # Background execution
//
// [Dispatcher.Dispatch] starts a request on its own goroutine and returns a [Task]. Callers
// either block on [Task.Result], select on [Task.Done], or bound the wait with [Task.Wait].
// The UI uses this so the event loop never blocks on a remote call.
//
// # Batches
//
// [Dispatcher.Batch] applies one request template to many accounts through a rate-limited
// worker pool. Accounts are deduplicated first, so each account has at most one call in flight.
//
// # Progress Reporting
//
// Batches report [ProgressUpdate]s over an optional channel. Sends never block; updates are
// dropped when the receiver falls behind.
//
// # History
//
// When a [Recorder] is configured (repositories.HistoryRepository), every executed request is
// stored as a [models.ActionRecord]. Passwords are never part of the recorded target.
package tasks
