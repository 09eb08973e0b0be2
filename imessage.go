package main

import (
	"fmt"
	"runtime"
	"strings"
)

func (n *Notifier) sendIMessage(message string) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("imessage notifications require macOS")
	}
	script := buildIMessageAppleScript(n.config.Notify.IMessageRecipient, message)
	return n.runCmd("osascript", "-e", script)
}

// buildIMessageAppleScript drives Messages.app; the recipient may be a phone
// number or an Apple ID email address.
func buildIMessageAppleScript(recipient, message string) string {
	recipient = escapeAppleScript(recipient)
	message = escapeAppleScript(message)

	var b strings.Builder
	b.WriteString("tell application \"Messages\"\n")
	b.WriteString("\tset targetService to 1st service whose service type = iMessage\n")
	fmt.Fprintf(&b, "\tset targetBuddy to buddy \"%s\" of targetService\n", recipient)
	fmt.Fprintf(&b, "\tsend \"%s\" to targetBuddy\n", message)
	b.WriteString("end tell")
	return b.String()
}
