package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const groundedResponse = `{
  "candidates": [{
    "content": {"parts": [{"text": "LockBit affiliates exploit "}, {"text": "CVE-2024-21410."}]},
    "groundingMetadata": {
      "groundingChunks": [
        {"web": {"uri": "https://www.cisa.gov/kev", "title": "CISA KEV"}},
        {"web": {"uri": "https://nvd.nist.gov/vuln/detail/CVE-2024-21410"}},
        {"retrievedContext": {"uri": "ignored"}}
      ]
    }
  }]
}`

func staticKey(k string) func() (string, error) {
	return func() (string, error) { return k, nil }
}

func newTestGemini(url string) *Gemini {
	return NewGemini(GeminiConfig{
		Key:          staticKey("test-key"),
		BaseURL:      url,
		Model:        "gemini-test",
		Timeout:      2 * time.Second,
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	})
}

func TestGeminiGroundedAnswer(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(groundedResponse))
	}))
	defer srv.Close()

	ans, err := newTestGemini(srv.URL).Ask(context.Background(), Request{Prompt: "weekly report", Grounded: true})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if ans.Text != "LockBit affiliates exploit CVE-2024-21410." {
		t.Fatalf("unexpected text: %q", ans.Text)
	}
	want := []Citation{
		{Title: "CISA KEV", URL: "https://www.cisa.gov/kev"},
		{Title: "https://nvd.nist.gov/vuln/detail/CVE-2024-21410", URL: "https://nvd.nist.gov/vuln/detail/CVE-2024-21410"},
	}
	if diff := cmp.Diff(want, ans.Citations); diff != "" {
		t.Fatalf("citations mismatch (-want +got):\n%s", diff)
	}
	if _, ok := gotBody["tools"]; !ok {
		t.Fatalf("grounded request without tools: %v", gotBody)
	}
}

func TestGeminiUngroundedOmitsTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["tools"]; ok {
			t.Errorf("ungrounded request carried tools")
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	ans, err := newTestGemini(srv.URL).Ask(context.Background(), Request{Prompt: "hi"})
	if err != nil || ans.Text != "ok" || len(ans.Citations) != 0 {
		t.Fatalf("ask = %#v, %v", ans, err)
	}
}

func TestGeminiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	_, err := newTestGemini(srv.URL).Ask(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrGateway) || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected gateway error with message, got %v", err)
	}
}

func TestGeminiRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"recovered"}]}}]}`))
	}))
	defer srv.Close()

	ans, err := newTestGemini(srv.URL).Ask(context.Background(), Request{Prompt: "x"})
	if err != nil || ans.Text != "recovered" {
		t.Fatalf("ask = %#v, %v", ans, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestGeminiWithoutKey(t *testing.T) {
	g := NewGemini(GeminiConfig{Key: staticKey("  ")})
	if _, err := g.Ask(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := (Unavailable{}).Ask(context.Background(), Request{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

type countingGateway struct {
	calls atomic.Int32
	err   error
}

func (c *countingGateway) Ask(_ context.Context, req Request) (Answer, error) {
	c.calls.Add(1)
	if c.err != nil {
		return Answer{}, c.err
	}
	return Answer{Text: "answer to " + req.Prompt}, nil
}

func TestCachedOnlyKeepsSuccesses(t *testing.T) {
	next := &countingGateway{}
	c := NewCached(next, 8, time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := c.Ask(context.Background(), Request{Prompt: "p"}); err != nil {
			t.Fatalf("ask: %v", err)
		}
	}
	c.Ask(context.Background(), Request{Prompt: "p", Grounded: true})
	if next.calls.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", next.calls.Load())
	}

	failing := &countingGateway{err: ErrGateway}
	fc := NewCached(failing, 8, time.Minute)
	fc.Ask(context.Background(), Request{Prompt: "p"})
	fc.Ask(context.Background(), Request{Prompt: "p"})
	if failing.calls.Load() != 2 {
		t.Fatalf("failures were cached: %d calls", failing.calls.Load())
	}

	c.Purge()
	c.Ask(context.Background(), Request{Prompt: "p"})
	if next.calls.Load() != 3 {
		t.Fatalf("purge kept answers: %d calls", next.calls.Load())
	}
}

func TestObservedOutcomes(t *testing.T) {
	var outcomes []string
	observe := func(o string) { outcomes = append(outcomes, o) }

	Observed{Next: &countingGateway{}, Observe: observe}.Ask(context.Background(), Request{})
	Observed{Next: &countingGateway{err: ErrGateway}, Observe: observe}.Ask(context.Background(), Request{})
	Observed{Next: Unavailable{}, Observe: observe}.Ask(context.Background(), Request{})

	if diff := cmp.Diff([]string{OutcomeOK, OutcomeError, OutcomeUnavailable}, outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}
