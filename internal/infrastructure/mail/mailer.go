// Package mail delivers transactional emails such as password reset links.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/mrz1836/postmark"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidConfig = errors.New("mail: invalid configuration")
	ErrSendFailed    = errors.New("mail: failed to send email")
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	Tag      string
}

// Mailer sends one Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// PostmarkConfig holds Postmark credentials and the sender identity.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	Sender       string
}

// PostmarkMailer sends mail through Postmark's transactional API.
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

func NewPostmarkMailer(cfg PostmarkConfig) (*PostmarkMailer, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: server token is required", ErrInvalidConfig)
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidConfig)
	}
	return &PostmarkMailer{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		sender: cfg.Sender,
	}, nil
}

func (m *PostmarkMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.sender,
		To:       msg.To,
		Subject:  msg.Subject,
		Tag:      msg.Tag,
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// LogMailer records outbound mail in the log instead of sending it.
// Message bodies are not logged because they carry reset tokens.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Str("tag", msg.Tag).Msg("email not sent: mail delivery disabled")
	return nil
}

var resetHTML = template.Must(template.New("reset").Parse(
	`{{if .Link}}<p><a href="{{.Link}}">Reset your password</a></p>{{else}}<p>Use this code to reset your password: {{.Token}}</p>{{end}}` +
		`<p>If you did not request this, ignore this email.</p>`))

type resetView struct {
	Token string
	Link  string
}

// ResetMessage renders the password reset email for token. When resetURL is
// empty the raw token is included instead of a link.
func ResetMessage(email, token, resetURL string) (Message, error) {
	view := resetView{Token: token}
	action := "Use this code to reset your password: " + token
	if resetURL != "" {
		view.Link = resetURL + "?token=" + url.QueryEscape(token)
		action = "Reset your password: " + view.Link
	}

	var html strings.Builder
	if err := resetHTML.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}
	return Message{
		To:       email,
		Subject:  "Password reset instructions",
		TextBody: action + "\n\nIf you did not request this, ignore this email.",
		HTMLBody: html.String(),
		Tag:      "password-reset",
	}, nil
}
