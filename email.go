package main

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

func (n *Notifier) sendEmail(subject, body string) error {
	recipients := n.config.Notify.EmailRecipients
	if len(recipients) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	switch n.config.Notify.EmailTransport {
	case "smtp":
		return n.sendSMTP(recipients, subject, body)
	case "applescript":
		return n.sendPerRecipient(recipients, func(recipient string) error {
			script := buildMailAppleScript(recipient, subject, body, n.config.Notify.EmailFrom)
			return n.runCmd("osascript", "-e", script)
		})
	case "mutt":
		return n.sendPerRecipient(recipients, func(recipient string) error {
			name, args := muttCommand(recipient, subject, body)
			return n.runCmd(name, args...)
		})
	default:
		return fmt.Errorf("unknown email transport '%s'", n.config.Notify.EmailTransport)
	}
}

func (n *Notifier) sendSMTP(recipients []string, subject, body string) error {
	cfg := n.config.Notify

	from := cfg.EmailFrom
	if from == "" {
		from = cfg.SMTPUser
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return d.DialAndSend(m)
}

// sendPerRecipient delivers to each recipient independently and logs every
// result. The channel counts as sent when at least one delivery succeeded;
// only a complete failure is an error.
func (n *Notifier) sendPerRecipient(recipients []string, send func(recipient string) error) error {
	var failed []string
	var lastErr error
	for _, recipient := range recipients {
		if err := send(recipient); err != nil {
			n.log.Warnw("email send failed", "recipient", recipient, "error", err)
			failed = append(failed, recipient)
			lastErr = err
			continue
		}
		n.log.Infow("email sent", "recipient", recipient)
	}
	if len(failed) == len(recipients) {
		return fmt.Errorf("all %d email sends failed: %w", len(recipients), lastErr)
	}
	if len(failed) > 0 {
		n.log.Warnw("partial email delivery", "failed_recipients", failed, "total", len(recipients))
	}
	return nil
}

// buildMailAppleScript drives Mail.app through osascript.
func buildMailAppleScript(recipient, subject, body, from string) string {
	subject = escapeAppleScript(subject)
	body = escapeAppleScript(body)
	recipient = escapeAppleScript(recipient)

	var b strings.Builder
	b.WriteString("tell application \"Mail\"\n")
	fmt.Fprintf(&b, "\tset newMessage to make new outgoing message with properties {subject:\"%s\", content:\"%s\"}\n", subject, body)
	b.WriteString("\ttell newMessage\n")
	if from != "" {
		fmt.Fprintf(&b, "\t\tset sender to \"%s\"\n", escapeAppleScript(from))
	}
	fmt.Fprintf(&b, "\t\tmake new to recipient at end of to recipients with properties {address:\"%s\"}\n", recipient)
	b.WriteString("\tend tell\n")
	b.WriteString("\tsend newMessage\n")
	b.WriteString("end tell")
	return b.String()
}

// muttCommand builds the shell pipeline that feeds the body to mutt's stdin.
func muttCommand(recipient, subject, body string) (string, []string) {
	pipeline := fmt.Sprintf("echo %s | mutt -s %s -- %s",
		shellQuote(body), shellQuote(subject), shellQuote(recipient))
	return "sh", []string{"-c", pipeline}
}

func buildEmailBody(details *TicketDetails) string {
	train := details.Train
	if train == "" {
		train = "SRT"
	}
	return fmt.Sprintf(`<html>
<body>
<h2>SRT reservation available!</h2>
<p>A reserve link just became clickable and was clicked for you.</p>
<p><strong>Train:</strong> %s</p>
<p><strong>Departure:</strong> %s</p>
<p>Complete the payment within 10 minutes or the reservation is released.</p>
<p><a href="%s">Open the booking page</a></p>
</body>
</html>`, train, details.DepartureTime, srtSearchURL)
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
