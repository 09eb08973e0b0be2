package main

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Searcher runs one poll cycle against the booking site and can tear down and
// reacquire its browser session. The watcher owns the session for the loop's
// lifetime; implementations must not hand the handle out across cycles.
type Searcher interface {
	Cycle() Outcome
	Restart() error
}

// Dispatcher delivers the found-ticket alert. It never fails as a whole; it
// reports per-channel success for logging.
type Dispatcher interface {
	Dispatch(details *TicketDetails) DispatchReport
}

// AttemptState is the watcher's loop state. It is owned exclusively by the
// watcher and exposed for logging and tests.
type AttemptState struct {
	Cycle             int
	ConsecutiveErrors int
	Restarts          int
	LastBackoff       time.Duration
}

// Watcher drives the poll/retry/escalation loop: retry with growing backoff,
// restart the browser after too many consecutive errors, abort once the
// restart budget is spent.
type Watcher struct {
	searcher   Searcher
	notifier   Dispatcher
	limits     Limits
	notifyOnly bool
	log        *zap.SugaredLogger

	state   AttemptState
	backoff *backoff.ExponentialBackOff
	sleep   func(time.Duration)
}

func NewWatcher(searcher Searcher, notifier Dispatcher, limits Limits, notifyOnly bool, log *zap.SugaredLogger) *Watcher {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     limits.BaseBackoff,
		RandomizationFactor: 0,
		Multiplier:          limits.BackoffGrowth,
		MaxInterval:         limits.BackoffCap,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	return &Watcher{
		searcher:   searcher,
		notifier:   notifier,
		limits:     limits,
		notifyOnly: notifyOnly,
		log:        log,
		backoff:    b,
		sleep:      time.Sleep,
	}
}

// State returns a copy of the current loop state.
func (w *Watcher) State() AttemptState {
	return w.state
}

// Run polls until tickets are found, a fatal error occurs, or the restart
// budget is exhausted. A nil return means tickets were found and the
// notification dispatch was invoked.
func (w *Watcher) Run() error {
	for {
		w.state.Cycle++
		w.log.Debugw("starting poll cycle", "cycle", w.state.Cycle)

		outcome := w.searcher.Cycle()

		switch outcome.Kind {
		case OutcomeTicketsFound:
			w.log.Infow("tickets found",
				"cycle", w.state.Cycle,
				"train", outcome.Details.Train,
				"departure", outcome.Details.DepartureTime)

			report := w.notifier.Dispatch(outcome.Details)
			w.log.Infow("notification dispatched",
				"desktop", report.DesktopNotified,
				"email", report.EmailSent,
				"imessage", report.MessageSent)

			if !w.notifyOnly {
				return nil
			}
			w.resetStreak()
			w.sleep(w.limits.PollInterval)

		case OutcomeNoTicketsYet:
			w.log.Infow("no tickets yet", "cycle", w.state.Cycle)
			w.resetStreak()
			w.sleep(w.limits.PollInterval)

		case OutcomeRecoverableError:
			w.state.ConsecutiveErrors++
			w.state.LastBackoff = w.backoff.NextBackOff()
			w.log.Warnw("recoverable error",
				"cycle", w.state.Cycle,
				"kind", string(outcome.ErrKind),
				"consecutive_errors", w.state.ConsecutiveErrors,
				"backoff", w.state.LastBackoff,
				"restarts", w.state.Restarts,
				"error", outcome.Err)

			w.sleep(w.state.LastBackoff)

			if w.state.ConsecutiveErrors >= w.limits.MaxConsecutiveErrors {
				if err := w.restartBrowser(); err != nil {
					return err
				}
			}

		case OutcomeFatalError:
			w.log.Errorw("fatal error, aborting",
				"cycle", w.state.Cycle,
				"kind", string(outcome.ErrKind),
				"error", outcome.Err)
			return outcome.Err
		}
	}
}

// restartBrowser escalates from retrying to a full browser restart. A failed
// restart attempt consumes budget too, so a browser that refuses to come back
// cannot spin forever.
func (w *Watcher) restartBrowser() error {
	for {
		w.state.Restarts++
		if w.state.Restarts > w.limits.MaxRestarts {
			w.log.Errorw("restart budget exhausted",
				"cycle", w.state.Cycle,
				"restarts", w.state.Restarts-1,
				"max_restarts", w.limits.MaxRestarts)
			return fmt.Errorf("%w: %d restarts used", ErrRestartBudgetExhausted, w.state.Restarts-1)
		}

		w.log.Infow("restarting browser",
			"cycle", w.state.Cycle,
			"restart", w.state.Restarts,
			"max_restarts", w.limits.MaxRestarts)

		if err := w.searcher.Restart(); err != nil {
			w.log.Warnw("browser restart failed",
				"restart", w.state.Restarts,
				"error", err)
			w.sleep(w.limits.BaseBackoff)
			continue
		}

		w.resetStreak()
		return nil
	}
}

func (w *Watcher) resetStreak() {
	w.state.ConsecutiveErrors = 0
	w.state.LastBackoff = 0
	w.backoff.Reset()
}
