// Package notify tells drivers about their visit over an external messaging
// gateway. Delivery is fire-and-forget: a failed message is logged and counted
// but never undoes the transition that triggered it.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// Gateway sends one text message to a destination (a phone number or group id).
// It returns false, or an error, when the message was not accepted.
type Gateway interface {
	Send(ctx context.Context, destination, text string) (bool, error)
}

// WhatsAppGateway posts messages to an HTTP relay that fronts a WhatsApp API.
// The relay accepts {"target","message"} and answers {"status": bool}.
type WhatsAppGateway struct {
	url    string
	token  string
	client *http.Client
}

// NewWhatsAppGateway returns a gateway posting to url. token, when set, is sent
// as a bearer Authorization header. A nil client uses http.DefaultClient;
// per-message deadlines come from the context.
func NewWhatsAppGateway(url, token string, client *http.Client) *WhatsAppGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &WhatsAppGateway{url: url, token: token, client: client}
}

type sendRequest struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

type sendResponse struct {
	Status bool `json:"status"`
}

// Send posts one message.
func (g *WhatsAppGateway) Send(ctx context.Context, destination, text string) (bool, error) {
	body, err := json.Marshal(sendRequest{Target: destination, Message: text})
	if err != nil {
		return false, fmt.Errorf("notify.WhatsAppGateway.Send: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("notify.WhatsAppGateway.Send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("notify.WhatsAppGateway.Send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("notify.WhatsAppGateway.Send: gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("notify.WhatsAppGateway.Send: decode: %w", err)
	}
	return out.Status, nil
}

// LogGateway writes messages to the log instead of sending them. It is used
// when no gateway URL is configured.
type LogGateway struct {
	logger *slog.Logger
}

// NewLogGateway returns a LogGateway writing to logger.
func NewLogGateway(logger *slog.Logger) *LogGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogGateway{logger: logger}
}

// Send logs the message and reports success.
func (g *LogGateway) Send(ctx context.Context, destination, text string) (bool, error) {
	g.logger.InfoContext(ctx, "notification (not sent, no gateway configured)",
		"destination", destination,
		"text", text,
	)
	return true, nil
}
