package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ai "sitfit-api/internal/infra/adapters/ai"
)

type slowAdvisor struct {
	inFlight int32
	peak     int32
}

func (s *slowAdvisor) Name() string { return "slow" }
func (s *slowAdvisor) Advise(ctx context.Context, sys, user string) (string, error) {
	n := atomic.AddInt32(&s.inFlight, 1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(&s.inFlight, -1)
	return "ok", nil
}

func TestLimitedAdvisor(t *testing.T) {
	t.Parallel()

	t.Run("should cap concurrent calls", func(t *testing.T) {
		inner := &slowAdvisor{}
		l := ai.NewLimitedAdvisor(inner, 2)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = l.Advise(context.Background(), "", "q")
			}()
		}
		wg.Wait()
		if inner.peak > 2 {
			t.Fatalf("expected at most 2 in flight, saw %d", inner.peak)
		}
		if l.Name() != "slow" {
			t.Errorf("expected inner name, got %q", l.Name())
		}
	})

	t.Run("should give up when the context ends while waiting", func(t *testing.T) {
		block := make(chan struct{})
		inner := &blockingAdvisor{release: block}
		l := ai.NewLimitedAdvisor(inner, 1)
		go func() { _, _ = l.Advise(context.Background(), "", "first") }()
		time.Sleep(10 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := l.Advise(ctx, "", "second")
		close(block)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	})
}

type blockingAdvisor struct{ release chan struct{} }

func (b *blockingAdvisor) Name() string { return "blocking" }
func (b *blockingAdvisor) Advise(ctx context.Context, sys, user string) (string, error) {
	<-b.release
	return "ok", nil
}

func TestKeywordAdvisor(t *testing.T) {
	t.Parallel()
	k := ai.NewKeywordAdvisor()
	cases := map[string]string{
		`User Query: "outfit for a job interview"`: "Interview",
		`User Query: "lazy weekend brunch"`:        "weekend",
		`User Query: "romantic dinner plans"`:      "Date night",
		`User Query: "what colors suit me"`:        "Everyday",
	}
	for prompt, want := range cases {
		got, err := k.Advise(context.Background(), "", prompt)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", prompt, err)
		}
		if !strings.Contains(got, want) {
			t.Errorf("%q: expected answer containing %q, got %q", prompt, want, got)
		}
	}
}

func TestOpenAIAdapter_Advise(t *testing.T) {
	t.Parallel()
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") || r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Wear a navy blazer."}}]}`))
	}))
	defer srv.Close()

	a, err := ai.NewOpenAIAdapter("sk-test", srv.URL+"/v1/", "gpt-4o-mini", 256)
	if err != nil {
		t.Fatalf("constructor: %v", err)
	}
	out, err := a.Advise(context.Background(), "be a stylist", "what to wear")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Wear a navy blazer." {
		t.Errorf("unexpected answer %q", out)
	}
	if got.Model != "gpt-4o-mini" || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "what to wear" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestConstructorsRequireKeys(t *testing.T) {
	t.Parallel()
	if _, err := ai.NewOpenAIAdapter("", "", "", 0); err == nil {
		t.Error("expected openai constructor to refuse an empty key")
	}
	if _, err := ai.NewGeminiAdapter(context.Background(), "", "", "", 0); err == nil {
		t.Error("expected gemini constructor to refuse an empty key")
	}
}
