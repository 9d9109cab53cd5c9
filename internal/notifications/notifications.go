// Package notifications pushes command failures to an ntfy topic so someone
// away from the panel still hears about them.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultServer = "https://ntfy.sh"

type Ntfy struct {
	server string
	topic  string
	client *http.Client
}

// New returns nil when no topic is configured; a nil *Ntfy drops every
// message.
func New(server, topic string) *Ntfy {
	if topic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return nil
	}
	if server == "" {
		server = DefaultServer
	}

	log.Info().
		Str("topic", topic).
		Msg("Ntfy notifications initialized")

	return &Ntfy{
		server: strings.TrimRight(server, "/"),
		topic:  topic,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type message struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Send publishes one message as JSON to the server root.
func (n *Ntfy) Send(ctx context.Context, title, body string) error {
	if n == nil {
		return nil
	}

	jsonData, err := json.Marshal(message{
		Topic:    n.topic,
		Title:    title,
		Message:  body,
		Priority: 4,
		Tags:     []string{"warning"},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.server+"/", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}
