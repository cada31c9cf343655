package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harbour.jpg")
	if err := os.WriteFile(path, []byte("not a real jpeg"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"content": content,
				},
			},
		},
	}
}

func TestClientAnnotate(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = json.Marshal(mustDecode(t, r))
		payload := completionResponse(`{"caption":"a harbour at dusk","tags":["harbour","dusk"]}`)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	annotation, err := client.Annotate(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if annotation.Caption != "a harbour at dusk" {
		t.Fatalf("caption = %q", annotation.Caption)
	}
	if len(annotation.Tags) != 2 {
		t.Fatalf("tags = %v", annotation.Tags)
	}
	if gotAuth != "Bearer test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if !strings.Contains(string(gotBody), "data:image/jpeg;base64,") {
		t.Fatal("request body missing image data url")
	}
}

func mustDecode(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return body
}

func TestClientAnnotateCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := completionResponse("```json\n{\"caption\":\"old pier\",\"tags\":[\"pier\"]}\n```")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	annotation, err := client.Annotate(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if annotation.Caption != "old pier" {
		t.Fatalf("caption = %q", annotation.Caption)
	}
}

func TestClientAnnotateRetriesServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		payload := completionResponse(`{"caption":"second try","tags":[]}`)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	annotation, err := client.Annotate(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if annotation.Caption != "second try" {
		t.Fatalf("caption = %q", annotation.Caption)
	}
	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
	if len(slept) != 1 {
		t.Fatalf("expected one backoff sleep, got %v", slept)
	}
}

func TestClientAnnotateDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "bad", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(time.Duration) {}),
	)
	if _, err := client.Annotate(context.Background(), writeTestImage(t)); err == nil {
		t.Fatal("expected annotate to fail")
	}
	if calls != 1 {
		t.Fatalf("expected single request, got %d", calls)
	}
}

func TestClientUnavailableWithoutKey(t *testing.T) {
	client := NewClient(Config{Model: "demo-model"})
	if client.Available() {
		t.Fatal("client without api key should be unavailable")
	}
	if _, err := client.Annotate(context.Background(), "ignored"); err == nil {
		t.Fatal("expected error from unavailable client")
	}
	var nilClient *Client
	if nilClient.Available() {
		t.Fatal("nil client should be unavailable")
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	client := NewClient(
		Config{APIKey: "test", Model: "demo-model"},
		WithRetryBackoff(time.Second, 4*time.Second),
		WithRetryMaxAttempts(6),
	)
	if got := client.backoffDelay(1); got != time.Second {
		t.Fatalf("attempt 1 delay = %s", got)
	}
	if got := client.backoffDelay(2); got != 2*time.Second {
		t.Fatalf("attempt 2 delay = %s", got)
	}
	if got := client.backoffDelay(5); got != 4*time.Second {
		t.Fatalf("attempt 5 delay = %s", got)
	}
}
