package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"report-service/internal/model"
)

const (
	DefaultDatamartPath = "/web_api/datamart"
	PortraitPath        = "/web_api/operation/portrait"

	maxErrorBody = 512
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

type Config struct {
	BaseURL      string
	DatamartPath string
	Token        string
	Timeout      time.Duration
}

type Client struct {
	baseURL      string
	datamartPath string
	token        string
	http         *http.Client
	log          zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.DatamartPath == "" {
		cfg.DatamartPath = DefaultDatamartPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		datamartPath: cfg.DatamartPath,
		token:        cfg.Token,
		http:         &http.Client{Timeout: cfg.Timeout},
		log:          log,
	}
}

func (c *Client) Datamart(ctx context.Context, params url.Values) (model.MetricResponse, error) {
	return c.get(ctx, c.datamartPath, params)
}

func (c *Client) Portrait(ctx context.Context, params url.Values) (model.MetricResponse, error) {
	return c.get(ctx, PortraitPath, params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (model.MetricResponse, error) {
	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("upstream request failed")
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(started)).
		Msg("upstream call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		c.log.Error().Int("status", resp.StatusCode).Str("path", path).Msg("upstream returned error status")
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(snippet)}
	}

	return Decode(body)
}

// Decode reads a day-keyed metric body. Values may be JSON numbers or
// numeric strings; anything else is dropped. An empty or null body decodes
// to an empty response.
func Decode(body []byte) (model.MetricResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.MetricResponse{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw map[string]map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode metric body: %w", err)
	}

	out := make(model.MetricResponse, len(raw))
	for day, values := range raw {
		row := make(map[string]float64, len(values))
		for key, v := range values {
			if f, ok := toFloat(v); ok {
				row[key] = f
			}
		}
		out[day] = row
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
