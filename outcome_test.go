package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind OutcomeKind
		wantErr  ErrKind
	}{
		{"cdp target error", errors.New("cdp error: Target not found"), OutcomeRecoverableError, ErrKindTransient},
		{"layout error", errors.New("layout object missing"), OutcomeRecoverableError, ErrKindTransient},
		{"detached node", errors.New("node does not belong to document"), OutcomeRecoverableError, ErrKindTransient},
		{"deadline", errors.New("context deadline exceeded"), OutcomeRecoverableError, ErrKindTransient},
		{"connection refused", errors.New("dial tcp: connection refused"), OutcomeRecoverableError, ErrKindTransient},
		{"websocket drop", errors.New("websocket: close 1006"), OutcomeRecoverableError, ErrKindTransient},
		{"missing element", errors.New("cannot find element #dptDt"), OutcomeRecoverableError, ErrKindTransient},
		{"configuration", fmt.Errorf("%w: ticket count must be between 1 and 9", ErrConfiguration), OutcomeFatalError, ErrKindConfig},
		{"unrecognized fails open", errors.New("something completely unexpected"), OutcomeRecoverableError, ErrKindUnknown},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			outcome := classifyOutcome(test.err)
			if outcome.Kind != test.wantKind {
				t.Errorf("classifyOutcome(%v).Kind = %v, expected %v", test.err, outcome.Kind, test.wantKind)
			}
			if outcome.ErrKind != test.wantErr {
				t.Errorf("classifyOutcome(%v).ErrKind = %q, expected %q", test.err, outcome.ErrKind, test.wantErr)
			}
			if outcome.Err == nil {
				t.Error("classifyOutcome dropped the underlying error")
			}
		})
	}
}

func TestIsTransientInteractionError(t *testing.T) {
	if isTransientInteractionError(nil) {
		t.Error("nil error should not be transient")
	}
	if isTransientInteractionError(errors.New("invalid password")) {
		t.Error("'invalid password' should not match transient patterns")
	}
	if !isTransientInteractionError(errors.New("read: CONNECTION RESET by peer")) {
		t.Error("matching should be case-insensitive")
	}
}

func TestOutcomeKindString(t *testing.T) {
	tests := []struct {
		kind     OutcomeKind
		expected string
	}{
		{OutcomeTicketsFound, "tickets_found"},
		{OutcomeNoTicketsYet, "no_tickets_yet"},
		{OutcomeRecoverableError, "recoverable_error"},
		{OutcomeFatalError, "fatal_error"},
	}

	for _, test := range tests {
		if got := test.kind.String(); got != test.expected {
			t.Errorf("OutcomeKind(%d).String() = %q, expected %q", test.kind, got, test.expected)
		}
	}
}
