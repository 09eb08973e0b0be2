package main

import (
	"errors"
	"strings"
)

// ErrConfiguration marks invalid or missing configuration. It is never
// retried; the process aborts before touching the browser.
var ErrConfiguration = errors.New("configuration error")

// ErrRestartBudgetExhausted is returned by the watcher when the browser has
// been restarted more times than the configured maximum.
var ErrRestartBudgetExhausted = errors.New("browser restart budget exhausted")

type OutcomeKind int

const (
	OutcomeTicketsFound OutcomeKind = iota
	OutcomeNoTicketsYet
	OutcomeRecoverableError
	OutcomeFatalError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTicketsFound:
		return "tickets_found"
	case OutcomeNoTicketsYet:
		return "no_tickets_yet"
	case OutcomeRecoverableError:
		return "recoverable_error"
	case OutcomeFatalError:
		return "fatal_error"
	default:
		return "unknown"
	}
}

// ErrKind tags the classification of an error carried by an Outcome.
type ErrKind string

const (
	ErrKindNone      ErrKind = ""
	ErrKindTransient ErrKind = "transient"
	ErrKindConfig    ErrKind = "config"
	ErrKindUnknown   ErrKind = "unknown"
)

// TicketDetails carries the human-readable description of a found ticket.
type TicketDetails struct {
	Train         string
	DepartureTime string
	LinkText      string
}

// Outcome is the result of one poll cycle, consumed immediately by the watcher.
type Outcome struct {
	Kind    OutcomeKind
	Details *TicketDetails
	Err     error
	ErrKind ErrKind
}

func ticketsFound(details *TicketDetails) Outcome {
	return Outcome{Kind: OutcomeTicketsFound, Details: details}
}

func noTicketsYet() Outcome {
	return Outcome{Kind: OutcomeNoTicketsYet}
}

// classifyOutcome converts an error from a browser interaction into an
// Outcome. Configuration errors are fatal; known page/CDP failures are
// transient; everything unrecognized is retried too, but tagged so a
// misclassified fatal condition shows up in the logs.
func classifyOutcome(err error) Outcome {
	if errors.Is(err, ErrConfiguration) {
		return Outcome{Kind: OutcomeFatalError, Err: err, ErrKind: ErrKindConfig}
	}
	if isTransientInteractionError(err) {
		return Outcome{Kind: OutcomeRecoverableError, Err: err, ErrKind: ErrKindTransient}
	}
	return Outcome{Kind: OutcomeRecoverableError, Err: err, ErrKind: ErrKindUnknown}
}

func isTransientInteractionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "target") ||
		strings.Contains(errStr, "layout") ||
		strings.Contains(errStr, "does not belong to document") ||
		strings.Contains(errStr, "cdp") ||
		strings.Contains(errStr, "cannot find") ||
		strings.Contains(errStr, "element not found") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "websocket")
}
