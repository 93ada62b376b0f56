package e2e

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"clubhouse/internal/mailer"
)

var codePattern = regexp.MustCompile(`<strong>(\d{6})</strong>`)

// Mailbox is an in-process mail sink the scenarios read codes and
// invitations from.
type Mailbox struct {
	mu       sync.Mutex
	messages []mailer.Message
}

func (m *Mailbox) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Latest returns the newest message sent to the address.
func (m *Mailbox) Latest(to string) (mailer.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].To == to {
			return m.messages[i], true
		}
	}
	return mailer.Message{}, false
}

// LatestCode pulls the verification code out of the newest message.
func (m *Mailbox) LatestCode(to string) (string, error) {
	msg, ok := m.Latest(to)
	if !ok {
		return "", fmt.Errorf("no mail sent to %s", to)
	}
	match := codePattern.FindStringSubmatch(msg.HTMLBody)
	if match == nil {
		return "", fmt.Errorf("latest mail to %s carries no code: %q", to, msg.Subject)
	}
	return match[1], nil
}
