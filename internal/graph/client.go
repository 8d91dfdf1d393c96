// Package graph es el cliente HTTP hacia las APIs de los proveedores (Graph de Meta,
// X v2, LinkedIn, TikTok). Reintenta errores de transporte y 5xx con backoff
// exponencial y devuelve el cuerpo como gjson.Result.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"

	"github.com/dropDatabas3/socialconnect/internal/metrics"
	"github.com/dropDatabas3/socialconnect/internal/observability/logger"
)

const maxBody = 4 << 20

// APIError es una respuesta no-2xx del proveedor.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph: provider responded %d: %s", e.Status, e.Message)
}

// IsStatus reporta si err es un APIError con ese status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

// Request describe una llamada. Body: Form o JSON (no ambos).
type Request struct {
	Method   string
	URL      string
	Query    url.Values
	Form     url.Values
	JSON     any
	Bearer   string
	Provider string // para logs y métricas
}

// Client es seguro para uso concurrente.
type Client struct {
	http     *http.Client
	maxTries uint
	initial  time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRetries fija la cantidad de intentos (incluye el primero) y el intervalo inicial.
func WithRetries(tries uint, initial time.Duration) Option {
	return func(c *Client) {
		if tries > 0 {
			c.maxTries = tries
		}
		if initial > 0 {
			c.initial = initial
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		maxTries: 3,
		initial:  200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do ejecuta la llamada con reintentos. 4xx no se reintenta.
func (c *Client) Do(ctx context.Context, r Request) (gjson.Result, error) {
	start := time.Now()
	log := logger.From(ctx).With(logger.Component("graph"), logger.Provider(r.Provider))

	payload, contentType, err := encodeBody(r)
	if err != nil {
		return gjson.Result{}, err
	}
	target := r.URL
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.Query.Encode()
	}

	op := func() (gjson.Result, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
		if err != nil {
			return gjson.Result{}, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if r.Bearer != "" {
			req.Header.Set("Authorization", "Bearer "+r.Bearer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return gjson.Result{}, err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return gjson.Result{}, err
		}
		if resp.StatusCode/100 != 2 {
			apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return gjson.Result{}, apiErr
			}
			return gjson.Result{}, backoff.Permanent(apiErr)
		}
		if len(raw) > 0 && !gjson.ValidBytes(raw) {
			return gjson.Result{}, backoff.Permanent(fmt.Errorf("graph: invalid json response"))
		}
		return gjson.ParseBytes(raw), nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initial
	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Debug("provider call retry", logger.Err(err), logger.DurationMs(d))
		}),
	)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ProviderCallLatency.WithLabelValues(r.Provider, outcome).Observe(float64(time.Since(start).Milliseconds()))
	return res, err
}

func encodeBody(r Request) ([]byte, string, error) {
	switch {
	case r.Form != nil && r.JSON != nil:
		return nil, "", errors.New("graph: request has both form and json body")
	case r.Form != nil:
		return []byte(r.Form.Encode()), "application/x-www-form-urlencoded", nil
	case r.JSON != nil:
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("graph: encode body: %w", err)
		}
		return b, "application/json", nil
	}
	return nil, "", nil
}

// errorMessage extrae el mensaje de los formatos de error de cada proveedor.
func errorMessage(raw []byte) string {
	for _, path := range []string{"error.message", "detail", "message", "error.description", "error_description", "title"} {
		if v := gjson.GetBytes(raw, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	if e := gjson.GetBytes(raw, "error"); e.Type == gjson.String {
		return e.String()
	}
	return "unknown error"
}
