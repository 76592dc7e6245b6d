package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"userhub/api/internal/config"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridNotifier delivers verification codes through the SendGrid mail
// API.
type SendGridNotifier struct {
	cfg    config.MailConfig
	client *http.Client
	log    zerolog.Logger
}

func NewSendGridNotifier(cfg config.MailConfig, log zerolog.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPayload struct {
	Personalizations []struct {
		To      []sendGridAddress `json:"to"`
		Subject string            `json:"subject"`
	} `json:"personalizations"`
	From    sendGridAddress `json:"from"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (n *SendGridNotifier) Send(ctx context.Context, email, code, purpose string) error {
	payload := sendGridPayload{
		From: sendGridAddress{Email: n.cfg.FromAddress, Name: n.cfg.FromName},
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To      []sendGridAddress `json:"to"`
		Subject string            `json:"subject"`
	}{
		To:      []sendGridAddress{{Email: email}},
		Subject: subjectFor(purpose),
	})
	payload.Content = append(payload.Content, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{
		Type:  "text/html",
		Value: bodyFor(code, purpose),
	})

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendGridEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.SendGridAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, detail)
	}

	n.log.Info().Str("email", email).Str("purpose", purpose).Msg("verification code sent")
	return nil
}

func subjectFor(purpose string) string {
	switch purpose {
	case "register":
		return "Confirm your registration"
	case "reset":
		return "Reset your account"
	default:
		return "Your login code"
	}
}

func bodyFor(code, purpose string) string {
	return fmt.Sprintf(
		`<p>Your verification code is <strong>%s</strong>.</p>`+
			`<p>It expires in 5 minutes. If you did not request a %s code, ignore this email.</p>`,
		code, purpose)
}

// LogNotifier replaces outbound delivery in development: the code is written
// to the log instead of an inbox.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, email, code, purpose string) error {
	n.log.Info().
		Str("email", email).
		Str("code", code).
		Str("purpose", purpose).
		Msg("dev mode: verification code not delivered")
	return nil
}
