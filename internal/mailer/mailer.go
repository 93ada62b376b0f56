// Package mailer delivers outbound email. Delivery is always best-effort:
// callers log a failed Send and carry on.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/yuin/goldmark"
)

// Message is one outbound email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render mail body: %w", err)
	}
	return buf.String(), nil
}

// ChallengeMessage builds the verification-code email.
func ChallengeMessage(to, code string, ttlMinutes int) (Message, error) {
	body, err := render(fmt.Sprintf(
		"# Verify your email\n\nYour verification code is **%s**.\n\nIt expires in %d minutes. If you did not request it, ignore this message.\n",
		code, ttlMinutes,
	))
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Your verification code", HTMLBody: body}, nil
}

// AcceptInviteURL builds <origin>/accept-invite?token=<token>.
func AcceptInviteURL(origin, token string) string {
	return origin + "/accept-invite?token=" + url.QueryEscape(token)
}

// InviteMessage builds the invitation email for a targeted invite.
func InviteMessage(to, societyName, role, acceptURL string) (Message, error) {
	body, err := render(fmt.Sprintf(
		"# You're invited\n\nYou have been invited to join **%s** as **%s**.\n\n[Accept the invitation](%s)\n",
		societyName, role, acceptURL,
	))
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Invitation to join " + societyName, HTMLBody: body}, nil
}
