package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_EmptyBaseURL(t *testing.T) {
	if _, err := New(WithBaseURL("  ")); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}
	reg := prometheus.NewRegistry()
	for _, o := range []Option{
		WithBaseURL("http://duet:5000"),
		WithTimeout(time.Second),
		WithUserAgent("test/1"),
		WithHTTPClient(http.DefaultClient),
		WithPrometheus(reg),
	} {
		o.apply(cfg)
	}
	if cfg.baseURL != "http://duet:5000" {
		t.Errorf("baseURL = %q", cfg.baseURL)
	}
	if cfg.timeout != time.Second {
		t.Errorf("timeout = %v", cfg.timeout)
	}
	if cfg.userAgent != "test/1" {
		t.Errorf("userAgent = %q", cfg.userAgent)
	}
	if cfg.httpClient != http.DefaultClient {
		t.Error("httpClient not applied")
	}
	if cfg.metricsReg != reg {
		t.Error("metricsReg not applied")
	}
}

func TestChat(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != defaultUserAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]string{"response": "hello back"})
	}))

	reply, err := c.Chat(context.Background(), ChatRequest{
		Message:   "hello",
		Document:  "notes.txt",
		Reasoning: true,
		Memories:  []string{"m1"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "hello back" {
		t.Errorf("reply = %q", reply)
	}
	if got.Message != "hello" || got.Document != "notes.txt" || !got.Reasoning {
		t.Errorf("request = %+v", got)
	}
	if len(got.Memories) != 1 || got.Memories[0] != "m1" {
		t.Errorf("memories = %v", got.Memories)
	}
}

func TestChat_ErrorReplyIsText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"response": "Error: Empty input"})
	}))

	reply, err := c.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "Error: Empty input" {
		t.Errorf("reply = %q", reply)
	}
}

func TestChat_BadRequest(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"response": "Error: Invalid request body"})
	}))

	_, err := c.Chat(context.Background(), ChatRequest{Message: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "Invalid request body") {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestNewConversation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(w, http.StatusCreated, map[string]string{"conversationId": "c-1"})
	}))

	id, err := c.NewConversation(context.Background())
	if err != nil {
		t.Fatalf("NewConversation: %v", err)
	}
	if id != "c-1" {
		t.Errorf("id = %q", id)
	}
}

func TestStoreMemory(t *testing.T) {
	var got Turn
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]any{
			"status": "stored",
			"metadata": Metadata{
				UserMessage:    got.UserMessage,
				Timestamp:      "2026-01-02T03:04:05Z",
				ConversationID: got.ConversationID,
			},
		})
	}))

	md, err := c.StoreMemory(context.Background(), Turn{
		ConversationID: "c-1",
		UserMessage:    &Message{Text: "hi", Sender: "user"},
	})
	if err != nil {
		t.Fatalf("StoreMemory: %v", err)
	}
	if md.ConversationID != "c-1" || md.Timestamp == "" {
		t.Errorf("metadata = %+v", md)
	}
	if md.UserMessage == nil || md.UserMessage.Text != "hi" {
		t.Errorf("user message = %+v", md.UserMessage)
	}
}

func TestStoreMemory_ExtraFieldsRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		var user map[string]any
		_ = json.Unmarshal(body["userMessage"], &user)
		if user["id"] != float64(7) || user["text"] != "hi" {
			t.Errorf("sent userMessage = %s", body["userMessage"])
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"status": "stored",
			"metadata": map[string]any{
				"userMessage": body["userMessage"],
				"documents":   []string{},
				"links":       []string{},
			},
		})
	}))

	md, err := c.StoreMemory(context.Background(), Turn{
		ConversationID: "c-1",
		UserMessage:    &Message{Text: "hi", Extra: map[string]any{"id": 7}},
	})
	if err != nil {
		t.Fatalf("StoreMemory: %v", err)
	}
	if md.UserMessage == nil || md.UserMessage.Text != "hi" || md.UserMessage.Extra["id"] != float64(7) {
		t.Errorf("user message = %+v", md.UserMessage)
	}
	if md.Documents == nil || md.Links == nil {
		t.Errorf("expected empty arrays, got %+v", md)
	}
}

func TestErrors_MapToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   error
	}{
		{"missing id", http.StatusBadRequest, "missing_identifier", ErrMissingIdentifier},
		{"validation", http.StatusBadRequest, "validation_failed", ErrValidation},
		{"not found", http.StatusNotFound, "not_found", ErrNotFound},
		{"unsupported", http.StatusUnsupportedMediaType, "unsupported_format", ErrUnsupportedFormat},
		{"embedding", http.StatusBadGateway, "embedding_provider_error", ErrEmbeddingProviderError},
		{"fetch", http.StatusBadGateway, "fetch_failed", ErrFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, map[string]string{"code": tt.code, "message": "boom"})
			}))

			_, err := c.Retrieve(context.Background(), "c-1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status || apiErr.Message != "boom" {
				t.Errorf("api error = %+v", apiErr)
			}
		})
	}
}

func TestRetrieveLatestAndSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /memories/latest", func(w http.ResponseWriter, r *http.Request) {
		var body conversationBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, []Metadata{{ConversationID: body.ConversationID, Timestamp: "t2"}})
	})
	mux.HandleFunc("POST /memories/search", func(w http.ResponseWriter, r *http.Request) {
		var body searchBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Query != "weather" || body.TopK != 2 {
			t.Errorf("search body = %+v", body)
		}
		writeJSON(w, http.StatusOK, []Hit{{Score: 0.9, Text: "sunny", Metadata: Metadata{ConversationID: body.ConversationID}}})
	})
	c := newTestClient(t, mux)

	latest, err := c.RetrieveLatest(context.Background(), "c-9")
	if err != nil {
		t.Fatalf("RetrieveLatest: %v", err)
	}
	if len(latest) != 1 || latest[0].ConversationID != "c-9" {
		t.Errorf("latest = %+v", latest)
	}

	hits, err := c.Search(context.Background(), "c-9", "weather", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Text != "sunny" || hits[0].Score != 0.9 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestUploadDocument(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "bad_request", "message": err.Error()})
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		writeJSON(w, http.StatusCreated, Source{Name: hdr.Filename, Characters: len(data)})
	}))

	src, err := c.UploadDocument(context.Background(), "notes.txt", strings.NewReader("some notes"))
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if src.Name != "notes.txt" || src.Characters != 10 {
		t.Errorf("source = %+v", src)
	}
}

func TestLinksAndDocuments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /links", func(w http.ResponseWriter, r *http.Request) {
		var body linkBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, Source{Name: body.URL, Characters: 42})
	})
	mux.HandleFunc("GET /links", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []string{"https://example.com"})
	})
	mux.HandleFunc("GET /documents", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []string{})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	src, err := c.AddLink(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if src.Name != "https://example.com" || src.Characters != 42 {
		t.Errorf("source = %+v", src)
	}

	links, err := c.ListLinks(ctx)
	if err != nil || len(links) != 1 {
		t.Errorf("ListLinks = %v, %v", links, err)
	}
	docs, err := c.ListDocuments(ctx)
	if err != nil || len(docs) != 0 {
		t.Errorf("ListDocuments = %v, %v", docs, err)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus string
	}{
		{"healthy", http.StatusOK, "ok"},
		{"degraded", http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, HealthStatus{
					Status: tt.wantStatus,
					Checks: map[string]string{"database": "ok"},
				})
			}))

			h, err := c.Health(context.Background())
			if err != nil {
				t.Fatalf("Health: %v", err)
			}
			if h.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", h.Status, tt.wantStatus)
			}
			if h.Checks["database"] != "ok" {
				t.Errorf("checks = %v", h.Checks)
			}
		})
	}
}

func TestHealth_UnexpectedStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	_, err := c.Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(WithBaseURL(url), WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.NewConversation(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport error must not be an APIError: %v", err)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/documents" {
			writeJSON(w, http.StatusOK, []string{"a"})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "x"})
	}), WithPrometheus(reg))
	ctx := context.Background()

	_, _ = c.ListDocuments(ctx)
	_, _ = c.Retrieve(ctx, "c-1")

	if got := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("list_documents", "ok")); got != 1 {
		t.Errorf("list_documents ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("retrieve", "error")); got != 1 {
		t.Errorf("retrieve error = %v, want 1", got)
	}

	// A second client on the same registry reuses the collectors.
	if _, err := New(WithPrometheus(reg)); err != nil {
		t.Fatalf("second client: %v", err)
	}
}

func TestAPIError_Message(t *testing.T) {
	e := &APIError{Status: 404, Code: "not_found", Message: "document not found"}
	if got := e.Error(); got != "duet: not_found (status 404): document not found" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(e, ErrNotFound) {
		t.Error("expected ErrNotFound")
	}
	bare := &APIError{Status: 500, Message: "oops"}
	if bare.Unwrap() != nil {
		t.Error("unknown code must not unwrap")
	}
}
