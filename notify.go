package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// DispatchReport records per-channel delivery results. Channels are
// independent best-effort; one failing never blocks another.
type DispatchReport struct {
	DesktopNotified bool
	EmailSent       bool
	MessageSent     bool
}

// Notifier fans a found-ticket alert out to the configured channels. Dispatch
// never returns an error; delivery failures are logged and reflected in the
// report only.
type Notifier struct {
	config *Config
	log    *zap.SugaredLogger

	// runCmd executes an external notification binary. Swapped in tests.
	runCmd func(name string, args ...string) error
}

func NewNotifier(config *Config, log *zap.SugaredLogger) *Notifier {
	return &Notifier{
		config: config,
		log:    log,
		runCmd: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

func (n *Notifier) Dispatch(details *TicketDetails) DispatchReport {
	var report DispatchReport

	subject := "Ticket Found (SRT) - Buy within 10 minutes"
	body := buildEmailBody(details)

	if n.config.Notify.DesktopEnabled {
		if err := n.sendDesktop("Ticket Found!", "Buy within 10 minutes"); err != nil {
			n.log.Warnw("desktop notification failed", "error", err)
		} else {
			report.DesktopNotified = true
		}
	}

	if transport := n.config.Notify.EmailTransport; transport != "" && transport != "none" {
		if err := n.sendEmail(subject, body); err != nil {
			n.log.Warnw("email notification failed", "transport", transport, "error", err)
		} else {
			report.EmailSent = true
		}
	}

	if n.config.Notify.IMessageRecipient != "" {
		if err := n.sendIMessage("SRT ticket found! Buy within 10 minutes."); err != nil {
			n.log.Warnw("imessage notification failed", "error", err)
		} else {
			report.MessageSent = true
		}
	}

	return report
}

// DispatchFailure alerts the user that the watcher gave up, desktop only.
func (n *Notifier) DispatchFailure(message string) {
	if !n.config.Notify.DesktopEnabled {
		return
	}
	if err := n.sendDesktop("Ticket Automation Failed", message); err != nil {
		n.log.Warnw("failure notification failed", "error", err)
	}
}

func (n *Notifier) sendDesktop(title, message string) error {
	switch runtime.GOOS {
	case "darwin":
		args := desktopNotifierArgs(title, message, n.config.Notify.Sound, n.config.Notify.OpenURL)
		return n.runCmd("terminal-notifier", args...)
	case "linux":
		return n.runCmd("notify-send", title, message)
	default:
		return fmt.Errorf("desktop notifications not supported on %s", runtime.GOOS)
	}
}

func desktopNotifierArgs(title, message, sound, openURL string) []string {
	args := []string{
		"-title", title,
		"-message", message,
		"-subtitle", "SRT Ticket Watcher",
	}
	if sound != "" {
		args = append(args, "-sound", sound)
	}
	if openURL != "" {
		args = append(args, "-open", openURL)
	}
	return args
}
