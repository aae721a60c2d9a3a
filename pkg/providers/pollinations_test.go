package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/new-xmon-df/pollinations-go/pkg/config"
	"github.com/new-xmon-df/pollinations-go/pkg/credentials"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "mistral",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
}`

func TestChatForwardsOptions(t *testing.T) {
	var body map[string]interface{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("Authorization = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer upstream.Close()

	opts := DefaultChatOptions()
	opts.Temperature = 0.5
	p := NewChatProvider(upstream.URL, "sk_test", opts, nil)

	resp, err := p.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
	}, "mistral")
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if resp.Content != "hello" || resp.FinishReason != "stop" || resp.Usage["total_tokens"] != 4 {
		t.Fatalf("resp = %+v", resp)
	}

	if body["model"] != "mistral" {
		t.Fatalf("model = %v", body["model"])
	}
	if body["temperature"] != 0.5 || body["top_p"] != float64(1) {
		t.Fatalf("temperature = %v, top_p = %v", body["temperature"], body["top_p"])
	}
	if _, ok := body["max_tokens"]; ok {
		t.Fatalf("max_tokens sent with zero limit")
	}
	if msgs, _ := body["messages"].([]interface{}); len(msgs) != 2 {
		t.Fatalf("messages = %v", body["messages"])
	}
}

func TestChatSendsMaxTokensAndDefaultModel(t *testing.T) {
	var body map[string]interface{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer upstream.Close()

	opts := DefaultChatOptions()
	opts.MaxTokens = 256
	p := NewChatProvider(upstream.URL, "sk_test", opts, nil)
	if _, err := p.Chat(context.Background(), []Message{{Content: "hi"}}, ""); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if body["model"] != DefaultChatModel || body["max_tokens"] != float64(256) {
		t.Fatalf("body = %v", body)
	}
}

func TestChatMapsStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"no pollen"}}`))
	}))
	defer upstream.Close()

	p := NewChatProvider(upstream.URL, "sk_test", DefaultChatOptions(), nil)
	_, err := p.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "")
	if err == nil || !strings.HasPrefix(err.Error(), "Pollen balance exhausted") {
		t.Fatalf("err = %v", err)
	}
}

func TestChatRejectsUnknownRole(t *testing.T) {
	p := NewChatProvider("http://127.0.0.1:0", "sk_test", DefaultChatOptions(), nil)
	if _, err := p.Chat(context.Background(), []Message{{Role: "tool", Content: "x"}}, ""); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := p.Chat(context.Background(), nil, ""); err == nil {
		t.Fatalf("expected error for empty messages")
	}
}

func TestStream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"openai\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: {\"id\":\"c\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"openai\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	p := NewChatProvider(upstream.URL, "sk_test", DefaultChatOptions(), nil)
	ch, err := p.Stream(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "")
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	var content, finish string
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("stream error: %v", chunk.Error)
		}
		content += chunk.Content
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	if content != "Hello" || finish != "stop" {
		t.Fatalf("content = %q, finish = %q", content, finish)
	}
}

func TestStreamStopsWhenContextEnds(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 3; i++ {
			fmt.Fprint(w, "data: {\"id\":\"c\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"openai\",\"choices\":[],\"usage\":{\"prompt_tokens\":1,\"completion_tokens\":2,\"total_tokens\":3}}\n\n")
		}
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewChatProvider(upstream.URL, "sk_test", DefaultChatOptions(), nil)
	ch, err := p.Stream(ctx, []Message{{Role: RoleUser, Content: "hi"}}, "")
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}

	first := <-ch
	if first.Usage["total_tokens"] != 3 {
		t.Fatalf("first chunk = %+v, want usage", first)
	}
	cancel()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatalf("stream channel not closed after cancel")
		}
	}
}

func TestNewProviderFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Chat.Model = "claude-fast"
	cfg.Chat.Timeout = 1500

	store := credentials.StaticStore{Cred: &credentials.Credential{APIKey: "sk_test"}}
	p, err := NewProvider(context.Background(), cfg, store, nil)
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	if p.GetDefaultModel() != "claude-fast" || p.opts.Timeout.Milliseconds() != 1500 {
		t.Fatalf("opts = %+v", p.opts)
	}

	if _, err := NewProvider(context.Background(), cfg, credentials.StaticStore{}, nil); err == nil {
		t.Fatalf("expected error without a key")
	}
}
