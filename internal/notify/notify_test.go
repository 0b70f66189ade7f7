package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/cliptune/internal/shared"
	tu "github.com/desertthunder/cliptune/internal/testing"
)

func TestNewServiceNoopWithoutTopic(t *testing.T) {
	svc := NewService(shared.NotificationsConfig{ServerURL: "https://ntfy.sh"})
	if err := svc.Publish(context.Background(), "Download complete", "Daft Punk - One More Time"); err != nil {
		t.Fatalf("expected noop publish to succeed, got %v", err)
	}
	if _, ok := svc.(noopService); !ok {
		t.Errorf("expected noop service, got %T", svc)
	}
}

func TestPublish(t *testing.T) {
	var captured struct {
		path      string
		method    string
		title     string
		tags      string
		userAgent string
		body      string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.method = r.Method
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.userAgent = r.Header.Get("User-Agent")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(shared.NotificationsConfig{ServerURL: server.URL, Topic: "cliptune-dl"})
	err := svc.Publish(context.Background(), "Download complete", "Daft Punk - One More Time", "white_check_mark")
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if captured.path != "/cliptune-dl" {
		t.Errorf("unexpected path: %q", captured.path)
	}
	if captured.method != http.MethodPost {
		t.Errorf("unexpected method: %q", captured.method)
	}
	if captured.title != "Download complete" {
		t.Errorf("unexpected title: %q", captured.title)
	}
	if captured.tags != "white_check_mark" {
		t.Errorf("unexpected tags: %q", captured.tags)
	}
	if captured.userAgent != userAgent {
		t.Errorf("unexpected user agent: %q", captured.userAgent)
	}
	if captured.body != "Daft Punk - One More Time" {
		t.Errorf("unexpected body: %q", captured.body)
	}
}

func TestPublishOmitsEmptyHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Title"]; ok {
			t.Error("expected no Title header")
		}
		if _, ok := r.Header["Tags"]; ok {
			t.Error("expected no Tags header")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewService(shared.NotificationsConfig{ServerURL: server.URL, Topic: "t"})
	if err := svc.Publish(context.Background(), "", "just a message"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestPublishServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewService(shared.NotificationsConfig{ServerURL: server.URL, Topic: "t"})
	err := svc.Publish(context.Background(), "Download failed", "boom")
	if !errors.Is(err, shared.ErrAPIRequest) {
		t.Fatalf("expected ErrAPIRequest, got %v", err)
	}
}

func TestPublishTransportError(t *testing.T) {
	svc := &ntfyService{
		endpoint: "https://ntfy.example/t",
		client:   &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
	}

	err := svc.Publish(context.Background(), "Download failed", "boom")
	if !errors.Is(err, shared.ErrAPIRequest) {
		t.Fatalf("expected ErrAPIRequest, got %v", err)
	}
}

func TestPublishUnreadableErrorBody(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusInternalServerError, Body: &tu.FCloser{}}
	svc := &ntfyService{
		endpoint: "https://ntfy.example/t",
		client:   &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)},
	}

	err := svc.Publish(context.Background(), "Download failed", "boom")
	if !errors.Is(err, shared.ErrAPIRequest) {
		t.Fatalf("expected ErrAPIRequest, got %v", err)
	}
}
