// Package client talks to the ingestion backend. Every method issues exactly
// one HTTP request; nothing is retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KazanKK/flatbridge/internal/model"
	"github.com/KazanKK/flatbridge/internal/request"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	connectPath = "/api/connect"
	tablesPath  = "/api/tables"
	columnsPath = "/api/columns"
	previewPath = "/api/preview"
	ingestPath  = "/api/ingest"

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 64 << 20
)

type Options struct {
	BaseURL string
	// APIToken, when set, is sent as a bearer token on every request.
	APIToken  string
	Timeout   time.Duration
	Transport http.RoundTripper
}

type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func New(opts Options) *Client {
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiToken: opts.APIToken,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
	}
}

// envelope is the part of every response that decides success.
type envelope struct {
	Error json.RawMessage `json:"error"`
}

// Connect asks the backend to verify the source connection.
func (c *Client) Connect(ctx context.Context, payload request.Connect) error {
	return c.do(ctx, call{
		kind:     KindConnection,
		method:   http.MethodPost,
		path:     connectPath,
		body:     payload,
		fallback: fallbackConnect,
	}, nil)
}

// ListTables returns the tables of a database source. A missing or null list
// is an empty result.
func (c *Client) ListTables(ctx context.Context, query url.Values) ([]string, error) {
	var resp struct {
		Tables []string `json:"tables"`
	}
	if err := c.do(ctx, call{
		kind:     KindDiscovery,
		method:   http.MethodGet,
		path:     tablesPath,
		query:    query,
		fallback: fallbackTables,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Tables == nil {
		return []string{}, nil
	}
	return resp.Tables, nil
}

func (c *Client) ListColumns(ctx context.Context, query url.Values) ([]model.ColumnDescriptor, error) {
	var resp struct {
		Columns []model.ColumnDescriptor `json:"columns"`
	}
	if err := c.do(ctx, call{
		kind:     KindDiscovery,
		method:   http.MethodGet,
		path:     columnsPath,
		query:    query,
		fallback: fallbackColumns,
	}, &resp); err != nil {
		return nil, err
	}
	if resp.Columns == nil {
		return []model.ColumnDescriptor{}, nil
	}
	return resp.Columns, nil
}

func (c *Client) Preview(ctx context.Context, payload request.Preview) (model.PreviewResult, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, call{
		kind:     KindPreview,
		method:   http.MethodPost,
		path:     previewPath,
		body:     payload,
		fallback: fallbackPreview,
	}, &resp); err != nil {
		return model.PreviewResult{}, err
	}

	result, err := model.ParsePreview(resp.Data)
	if err != nil {
		return model.PreviewResult{}, &Error{Kind: KindPreview, Op: previewPath, Message: fallbackPreview, Err: err}
	}
	return result, nil
}

// Ingest triggers the transfer and returns the count reported by the backend.
func (c *Client) Ingest(ctx context.Context, payload request.Ingest) (model.IngestResult, error) {
	var resp model.IngestResult
	if err := c.do(ctx, call{
		kind:     KindIngestion,
		method:   http.MethodPost,
		path:     ingestPath,
		body:     payload,
		fallback: fallbackIngest,
	}, &resp); err != nil {
		return model.IngestResult{}, err
	}
	return resp, nil
}

type call struct {
	kind     Kind
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
}

// do performs one request. The response is an error iff its "error" member is
// truthy, whatever the HTTP status; otherwise it is decoded into out.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	fail := func(err error) error {
		return &Error{Kind: cl.kind, Op: cl.path, Message: cl.fallback, Err: err}
	}

	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fail(fmt.Errorf("encoding request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return fail(fmt.Errorf("creating request: %w", err))
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	fields := log.Fields{
		"method":     cl.method,
		"path":       cl.path,
		"request_id": requestID,
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithFields(fields).WithError(err).Debug("remote call failed")
		return fail(err)
	}
	defer resp.Body.Close()

	fields["status"] = resp.StatusCode
	fields["duration"] = time.Since(start).Round(time.Millisecond)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		log.WithFields(fields).WithError(err).Debug("reading response failed")
		return fail(fmt.Errorf("reading response body: %w", err))
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.WithFields(fields).WithError(err).Debug("response is not JSON")
		return fail(fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err))
	}

	if msg, failed := remoteMessage(env.Error); failed {
		if msg == "" {
			msg = cl.fallback
		}
		log.WithFields(fields).WithField("error", msg).Debug("remote call returned an error")
		return &Error{Kind: cl.kind, Op: cl.path, Message: msg}
	}

	log.WithFields(fields).Debug("remote call succeeded")
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(fmt.Errorf("parsing response: %w", err))
	}
	return nil
}
