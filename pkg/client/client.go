package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout   = 3 * time.Minute
	defaultUserAgent = "duet-client/1.0"
)

// Client talks to a duet server over HTTP. Safe for concurrent use.
type Client struct {
	http *resty.Client
	obs  *observer
}

// New builds a client. Without options it targets DefaultBaseURL.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		baseURL:   DefaultBaseURL,
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if strings.TrimSpace(cfg.baseURL) == "" {
		return nil, errors.New("duet: base URL is required")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var rc *resty.Client
	if cfg.httpClient != nil {
		rc = resty.NewWithClient(cfg.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(cfg.baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.userAgent)
	if cfg.timeout > 0 {
		rc.SetTimeout(cfg.timeout)
	}

	return &Client{http: rc, obs: obs}, nil
}

// Chat sends one turn and returns the reply text. Failures the server
// renders as a reply (empty input, missing document, provider errors)
// come back as text, not as an error.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var out chatResponse
	if err := c.do(ctx, "chat", http.MethodPost, "/chat", req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// NewConversation mints a conversation id.
func (c *Client) NewConversation(ctx context.Context) (string, error) {
	var out conversationBody
	if err := c.do(ctx, "new_conversation", http.MethodPost, "/conversations", nil, &out); err != nil {
		return "", err
	}
	return out.ConversationID, nil
}

// StoreMemory persists a turn and returns the metadata written.
func (c *Client) StoreMemory(ctx context.Context, turn Turn) (Metadata, error) {
	var out storeResponse
	if err := c.do(ctx, "store_memory", http.MethodPost, "/memories", turn, &out); err != nil {
		return Metadata{}, err
	}
	return out.Metadata, nil
}

// Retrieve returns every stored record of a conversation.
func (c *Client) Retrieve(ctx context.Context, conversationID string) ([]Metadata, error) {
	var out []Metadata
	body := conversationBody{ConversationID: conversationID}
	if err := c.do(ctx, "retrieve", http.MethodPost, "/memories/retrieve", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RetrieveLatest returns the most recent records of a conversation, newest first.
func (c *Client) RetrieveLatest(ctx context.Context, conversationID string) ([]Metadata, error) {
	var out []Metadata
	body := conversationBody{ConversationID: conversationID}
	if err := c.do(ctx, "retrieve_latest", http.MethodPost, "/memories/latest", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search recalls the records of a conversation closest to query.
// topK <= 0 uses the server default.
func (c *Client) Search(ctx context.Context, conversationID, query string, topK int) ([]Hit, error) {
	var out []Hit
	body := searchBody{ConversationID: conversationID, Query: query, TopK: topK}
	if err := c.do(ctx, "search", http.MethodPost, "/memories/search", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadDocument stores a file under name. The extension selects the extractor.
func (c *Client) UploadDocument(ctx context.Context, name string, r io.Reader) (Source, error) {
	start := time.Now()
	var out Source
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", name, r).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/upload")
	err = check(resp, err)
	c.obs.observe("upload_document", start, err)
	if err != nil {
		return Source{}, err
	}
	return out, nil
}

// AddLink crawls url and stores its text.
func (c *Client) AddLink(ctx context.Context, url string) (Source, error) {
	var out Source
	if err := c.do(ctx, "add_link", http.MethodPost, "/links", linkBody{URL: url}, &out); err != nil {
		return Source{}, err
	}
	return out, nil
}

// ListDocuments returns the stored document names.
func (c *Client) ListDocuments(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, "list_documents", http.MethodGet, "/documents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLinks returns the stored link names.
func (c *Client) ListLinks(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, "list_links", http.MethodGet, "/links", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health reports server health. A degraded server is not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err == nil && resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusServiceUnavailable {
		err = &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	} else if err != nil {
		err = fmt.Errorf("duet: health: %w", err)
	}
	var out HealthStatus
	if err == nil {
		if uerr := json.Unmarshal(resp.Body(), &out); uerr != nil {
			err = fmt.Errorf("duet: decode health: %w", uerr)
		}
	}
	c.obs.observe("health", start, err)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	err = check(resp, err)
	c.obs.observe(op, start, err)
	return err
}

// check turns a transport failure or error status into an error.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("duet: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if eb, ok := resp.Error().(*errorBody); ok && eb.Code != "" {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
	} else {
		apiErr.Message = strings.TrimSpace(resp.String())
	}
	return apiErr
}
