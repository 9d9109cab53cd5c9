package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/thatsimonsguy/rig-panel/internal/config"
	"github.com/thatsimonsguy/rig-panel/internal/model"
	"github.com/thatsimonsguy/rig-panel/internal/tracer"
)

type Client struct {
	baseURL string
	cookie  string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		cookie:  cfg.Cookie,
		http: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
	}
}

func (c *Client) ADCValues(ctx context.Context) (ADCValues, error) {
	var values ADCValues
	err := c.getJSON(ctx, PathADCValues, &values)
	return values, err
}

func (c *Client) GPIOStates(ctx context.Context) (GPIOStates, error) {
	var states GPIOStates
	err := c.getJSON(ctx, PathGPIOStates, &states)
	return states, err
}

func (c *Client) SetGPIO(ctx context.Context, id model.GPIOID, state bool) error {
	return c.postCommand(ctx, PathSetGPIO, SetGPIORequest{GPIO: id, State: state})
}

func (c *Client) SetPWM(ctx context.Context, id model.GPIOID, value int) error {
	return c.postCommand(ctx, PathSetPWM, SetPWMRequest{GPIO: id, Value: value})
}

func (c *Client) LogSensorData(ctx context.Context) error {
	return c.postCommand(ctx, PathLogSensorData, struct{}{})
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (err error) {
	ctx, span := startSpan(ctx, http.MethodGet, path)
	defer func() { endSpan(span, err) }()

	return c.do(ctx, http.MethodGet, path, nil, out)
}

// postCommand sends a command. A refusal from the server is a completed
// request, so it is kept on the span as command.error rather than as a
// span failure.
func (c *Client) postCommand(ctx context.Context, path string, body interface{}) (err error) {
	ctx, span := startSpan(ctx, http.MethodPost, path)
	defer func() {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			span.SetAttributes(tracer.StringAttr("command.error", cmdErr.Message))
			endSpan(span, nil)
			return
		}
		endSpan(span, err)
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", path, err)
	}

	var resp CommandResponse
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &CommandError{Endpoint: path, Message: resp.Error}
	}
	return nil
}

func startSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	ctx, span := tracer.StartSpan(ctx, "api."+strings.TrimPrefix(path, "/api/"))
	span.SetAttributes(tracer.StringAttr("http.method", method), tracer.StringAttr("endpoint", path))
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		tracer.RecordError(span, err)
	} else {
		tracer.SetOK(span)
	}
	span.End()
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	span := trace.SpanFromContext(ctx)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Endpoint: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(tracer.IntAttr("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{Endpoint: path, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(msg)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Endpoint: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	log.Debug().
		Str("method", method).
		Str("endpoint", path).
		Int("status", resp.StatusCode).
		Msg("Request completed")

	return nil
}
