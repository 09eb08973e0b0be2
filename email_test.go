package main

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBuildMailAppleScript(t *testing.T) {
	script := buildMailAppleScript("rider@example.com", "Ticket Found", "Buy within 10 minutes", "")

	for _, want := range []string{
		`tell application "Mail"`,
		`subject:"Ticket Found"`,
		`content:"Buy within 10 minutes"`,
		`address:"rider@example.com"`,
		"send newMessage",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("AppleScript missing %q:\n%s", want, script)
		}
	}

	if strings.Contains(script, "set sender") {
		t.Error("AppleScript should not set a sender when from is empty")
	}
}

func TestBuildMailAppleScriptWithSender(t *testing.T) {
	script := buildMailAppleScript("rider@example.com", "s", "b", "watcher@example.com")

	if !strings.Contains(script, `set sender to "watcher@example.com"`) {
		t.Errorf("AppleScript missing sender line:\n%s", script)
	}
}

func TestBuildMailAppleScriptEscapesQuotes(t *testing.T) {
	script := buildMailAppleScript("r@example.com", `He said "go"`, `back\slash`, "")

	if !strings.Contains(script, `subject:"He said \"go\""`) {
		t.Errorf("Quotes not escaped in subject:\n%s", script)
	}
	if !strings.Contains(script, `back\\slash`) {
		t.Errorf("Backslash not escaped in body:\n%s", script)
	}
}

func TestEscapeAppleScript(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`plain`, `plain`},
		{`with "quotes"`, `with \"quotes\"`},
		{`back\slash`, `back\\slash`},
		{`both \ and "`, `both \\ and \"`},
	}

	for _, test := range tests {
		if got := escapeAppleScript(test.input); got != test.expected {
			t.Errorf("escapeAppleScript(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestMuttCommand(t *testing.T) {
	name, args := muttCommand("rider@example.com", "Ticket Found", "hello")

	if name != "sh" {
		t.Errorf("Expected sh, got %q", name)
	}
	if len(args) != 2 || args[0] != "-c" {
		t.Fatalf("Expected [-c pipeline], got %v", args)
	}

	pipeline := args[1]
	for _, want := range []string{"echo 'hello'", "mutt -s 'Ticket Found'", "-- 'rider@example.com'"} {
		if !strings.Contains(pipeline, want) {
			t.Errorf("Pipeline missing %q: %s", want, pipeline)
		}
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "'plain'"},
		{"has space", "'has space'"},
		{"it's", `'it'\''s'`},
	}

	for _, test := range tests {
		if got := shellQuote(test.input); got != test.expected {
			t.Errorf("shellQuote(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestBuildEmailBody(t *testing.T) {
	body := buildEmailBody(&TicketDetails{Train: "SRT 331", DepartureTime: "20:10"})

	if !strings.Contains(body, "SRT 331") {
		t.Errorf("Body missing train identifier: %s", body)
	}
	if !strings.Contains(body, "20:10") {
		t.Errorf("Body missing departure time: %s", body)
	}
	if !strings.Contains(body, srtSearchURL) {
		t.Errorf("Body missing booking link: %s", body)
	}
}

func TestBuildEmailBodyEmptyTrain(t *testing.T) {
	body := buildEmailBody(&TicketDetails{})

	if !strings.Contains(body, "SRT") {
		t.Errorf("Body should fall back to a generic train label: %s", body)
	}
}

func TestSendEmailNoRecipients(t *testing.T) {
	config := DefaultConfig()
	config.Notify.EmailTransport = "mutt"
	notifier := NewNotifier(config, zap.NewNop().Sugar())

	if err := notifier.sendEmail("s", "b"); err == nil {
		t.Error("Expected error with no recipients configured")
	}
}

func TestSendEmailPerRecipient(t *testing.T) {
	config := DefaultConfig()
	config.Notify.EmailTransport = "mutt"
	config.Notify.EmailRecipients = []string{"a@example.com", "b@example.com"}
	notifier, calls := newTestNotifier(config)

	if err := notifier.sendEmail("subject", "body"); err != nil {
		t.Fatalf("sendEmail returned error: %v", err)
	}

	if len(*calls) != 2 {
		t.Errorf("Expected one mutt invocation per recipient, got %d", len(*calls))
	}
}

func TestSendEmailPartialFailureStillSends(t *testing.T) {
	config := DefaultConfig()
	config.Notify.EmailTransport = "mutt"
	config.Notify.EmailRecipients = []string{"down@example.com", "up@example.com"}
	notifier := NewNotifier(config, zap.NewNop().Sugar())
	notifier.runCmd = func(name string, args ...string) error {
		if strings.Contains(strings.Join(args, " "), "down@example.com") {
			return errors.New("mailbox unavailable")
		}
		return nil
	}

	if err := notifier.sendEmail("subject", "body"); err != nil {
		t.Errorf("One working recipient should be enough, got error: %v", err)
	}
}

func TestSendEmailAllRecipientsFailing(t *testing.T) {
	config := DefaultConfig()
	config.Notify.EmailTransport = "mutt"
	config.Notify.EmailRecipients = []string{"a@example.com", "b@example.com"}
	notifier := NewNotifier(config, zap.NewNop().Sugar())
	notifier.runCmd = func(name string, args ...string) error {
		return errors.New("mutt not installed")
	}

	if err := notifier.sendEmail("subject", "body"); err == nil {
		t.Error("Expected error when every recipient fails")
	}
}

func TestBuildIMessageAppleScript(t *testing.T) {
	script := buildIMessageAppleScript("+821012345678", "SRT ticket found!")

	for _, want := range []string{
		`tell application "Messages"`,
		`buddy "+821012345678"`,
		`send "SRT ticket found!"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("iMessage script missing %q:\n%s", want, script)
		}
	}
}
