package node_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/new-xmon-df/pollinations-go/pkg/apierrors"
	"github.com/new-xmon-df/pollinations-go/pkg/credentials"
	"github.com/new-xmon-df/pollinations-go/pkg/node"
	"github.com/new-xmon-df/pollinations-go/pkg/pollinations"
)

type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, req := range r.requests {
		out = append(out, req.URL.Path)
	}
	return out
}

func newNode(t *testing.T, handler http.HandlerFunc) (*node.Node, *recorder) {
	t.Helper()
	rec := &recorder{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		handler(w, r)
	}))
	t.Cleanup(upstream.Close)
	store := credentials.StaticStore{Cred: &credentials.Credential{APIKey: "sk_test"}}
	return node.New(pollinations.NewClient(upstream.URL, upstream.Client(), store)), rec
}

func TestGenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	n, rec := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.RawQuery != "model=flux&width=512&height=512" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		if r.URL.EscapedPath() != "/image/a%20red%20fox" {
			t.Errorf("path = %q", r.URL.EscapedPath())
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})

	items, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
		"operation": "generateImage",
		"prompt":    "a red fox",
		"model":     "flux",
		"options":   map[string]interface{}{"width": 512, "height": 512, "seed": 0},
	}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(items) != 1 || len(rec.paths()) != 1 {
		t.Fatalf("items = %d, requests = %d", len(items), len(rec.paths()))
	}

	item := items[0]
	if item.Binary == nil {
		t.Fatalf("binary missing")
	}
	if item.Binary.FileName != "image.png" || item.Binary.MimeType != "image/png" || !reflect.DeepEqual(item.Binary.Data, png) {
		t.Fatalf("binary = %+v", item.Binary)
	}
	request := item.JSON["request"].(map[string]interface{})
	if request["prompt"] != "a red fox" {
		t.Fatalf("request.prompt = %v", request["prompt"])
	}
	if request["seed"] != nil {
		t.Fatalf("request.seed = %v, want nil", request["seed"])
	}
	response := item.JSON["response"].(map[string]interface{})
	if response["statusCode"] != http.StatusOK || response["contentType"] != "image/png" {
		t.Fatalf("response = %v", response)
	}
	if !strings.HasSuffix(response["duration"].(string), "ms") {
		t.Fatalf("duration = %v", response["duration"])
	}
	if ts, _ := item.JSON["timestamp"].(string); !strings.HasSuffix(ts, "Z") {
		t.Fatalf("timestamp = %q", ts)
	}
}

func TestImageDefaultsInEcho(t *testing.T) {
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte("img"))
	})

	items, err := n.Execute(context.Background(), node.OpGenerateImage, []node.Request{{Prompt: "x"}})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	request := items[0].JSON["request"].(map[string]interface{})
	if request["width"] != 1024 || request["height"] != 1024 {
		t.Fatalf("request = %v", request)
	}
	response := items[0].JSON["response"].(map[string]interface{})
	if response["contentType"] == "" {
		t.Fatalf("contentType empty")
	}
}

func TestGenerateTextJSONMode(t *testing.T) {
	tests := []struct {
		body string
		want interface{}
	}{
		{`{"a":1}`, map[string]interface{}{"a": float64(1)}},
		{"not json", "not json"},
		{"null", "null"},
	}
	for _, tt := range tests {
		n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("json"); got != "true" {
				t.Errorf("json = %q", got)
			}
			_, _ = w.Write([]byte(tt.body))
		})
		items, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
			"operation":   "generateText",
			"textPrompt":  "give me json",
			"textOptions": map[string]interface{}{"jsonMode": true},
		}})
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if got := items[0].JSON["text"]; !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("text = %#v, want %#v", got, tt.want)
		}
		if items[0].Binary != nil {
			t.Fatalf("text item has binary")
		}
	}
}

func TestTextQuery(t *testing.T) {
	var query string
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte("ok"))
	})

	_, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
		"operation":    "generateText",
		"textPrompt":   "hi",
		"textModel":    "openai",
		"systemPrompt": "be brief",
		"textOptions":  map[string]interface{}{"seed": -1},
	}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if want := "model=openai&temperature=0.7&system=be+brief"; query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}

	_, err = n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
		"operation":   "generateText",
		"textPrompt":  "hi",
		"temperature": 1.2,
		"textOptions": map[string]interface{}{"seed": 0},
	}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if want := "temperature=1.2&seed=0"; query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
}

func TestMinimumBalanceBlocksGeneration(t *testing.T) {
	n, rec := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == pollinations.PathBalance {
			_, _ = w.Write([]byte(`{"balance":50}`))
			return
		}
		_, _ = w.Write([]byte("img"))
	})

	_, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
		"prompt":  "a red fox",
		"options": map[string]interface{}{"minimumBalance": 100},
	}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "50") || !strings.Contains(err.Error(), "100") {
		t.Fatalf("error = %q", err)
	}
	if idx, ok := apierrors.ItemIndex(err); !ok || idx != 0 {
		t.Fatalf("ItemIndex = %d, %v", idx, ok)
	}
	if got := rec.paths(); !reflect.DeepEqual(got, []string{pollinations.PathBalance}) {
		t.Fatalf("requests = %v", got)
	}
}

func TestZeroMinimumBalanceSkipsCheck(t *testing.T) {
	n, rec := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio"))
	})
	_, err := n.Execute(context.Background(), node.OpGenerateMusic, []node.Request{{Prompt: "calm piano"}})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	for _, p := range rec.paths() {
		if p == pollinations.PathBalance {
			t.Fatalf("balance fetched with zero minimum")
		}
	}
}

func TestForbiddenMessagesDependOnCall(t *testing.T) {
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	})

	_, err := n.Execute(context.Background(), node.OpGenerateImage, []node.Request{{
		Prompt:  "x",
		Options: node.Options{MinimumBalance: 1},
	}})
	if err == nil || !strings.Contains(err.Error(), `"Balance" permission`) {
		t.Fatalf("balance check error = %v", err)
	}

	_, err = n.Execute(context.Background(), node.OpGenerateImage, []node.Request{{Prompt: "x"}})
	if err == nil || strings.Contains(err.Error(), `"Balance" permission`) {
		t.Fatalf("generation error = %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Permission denied.") {
		t.Fatalf("generation error = %v", err)
	}
}

func TestInvalidReferenceImageMakesNoRequest(t *testing.T) {
	n, rec := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":1000}`))
	})

	for _, ref := range []string{"not a url", "/relative.png", "https://", "cat.png", "data:"} {
		_, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
			"operation":        "generateImageWithReference",
			"referencePrompt":  "make it blue",
			"referenceImage":   ref,
			"referenceOptions": map[string]interface{}{"minimumBalance": 10},
		}})
		if err == nil || !strings.Contains(err.Error(), "Invalid reference image URL") {
			t.Fatalf("%q: error = %v", ref, err)
		}
	}
	if got := rec.paths(); len(got) != 0 {
		t.Fatalf("requests = %v", got)
	}
}

func TestReferenceImageAcceptsAbsoluteURLs(t *testing.T) {
	var got []string
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Query().Get("image"))
		_, _ = w.Write([]byte("img"))
	})

	refs := []string{"https://example.com/cat.png", "ftp://example.com/cat.png", "data:image/png;base64,iVBORw0KGgo="}
	for _, ref := range refs {
		if _, err := n.Execute(context.Background(), node.OpGenerateImageWithReference, []node.Request{{Prompt: "blue", ReferenceImage: ref}}); err != nil {
			t.Fatalf("%q: Execute returned error: %v", ref, err)
		}
	}
	if !reflect.DeepEqual(got, refs) {
		t.Fatalf("image params = %v, want %v", got, refs)
	}
}

func TestReferenceImageQuery(t *testing.T) {
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("image"); got != "https://example.com/cat.png" {
			t.Errorf("image = %q", got)
		}
		if got := r.URL.Query().Get("model"); got != "kontext" {
			t.Errorf("model = %q", got)
		}
		_, _ = w.Write([]byte("img"))
	})
	items, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
		"operation":       "generateImageWithReference",
		"referencePrompt": "make it blue",
		"referenceImage":  "https://example.com/cat.png",
		"referenceModel":  "kontext",
	}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	request := items[0].JSON["request"].(map[string]interface{})
	if request["referenceImage"] != "https://example.com/cat.png" {
		t.Fatalf("request = %v", request)
	}
}

func TestGetBalanceRunsOnce(t *testing.T) {
	n, rec := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":12.5,"currency":"pollen"}`))
	})

	items, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{"operation": "getBalance"}, Items: 4})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(items) != 1 || len(rec.paths()) != 1 {
		t.Fatalf("items = %d, requests = %d", len(items), len(rec.paths()))
	}
	if items[0].JSON["balance"] != 12.5 || items[0].JSON["currency"] != "pollen" {
		t.Fatalf("item = %v", items[0].JSON)
	}
}

func TestSpeechAttachment(t *testing.T) {
	tests := []struct {
		format   string
		fileName string
		mime     string
	}{
		{"", "speech.mp3", "audio/mpeg"},
		{"wav", "speech.wav", "audio/wav"},
		{"opus", "speech.opus", "audio/opus"},
		{"ogg", "speech.mp3", "audio/mpeg"},
	}
	for _, tt := range tests {
		var format string
		n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
			format = r.URL.Query().Get("response_format")
			_, _ = w.Write([]byte("audio"))
		})
		items, err := n.Execute(context.Background(), node.OpGenerateSpeech, []node.Request{{
			Prompt:  "hello",
			Options: node.Options{Voice: "nova", ResponseFormat: tt.format},
		}})
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		b := items[0].Binary
		if b.FileName != tt.fileName || b.MimeType != tt.mime {
			t.Fatalf("format %q: binary = %s %s, want %s %s", tt.format, b.FileName, b.MimeType, tt.fileName, tt.mime)
		}
		if want := tt.format; want != "" && format != want {
			t.Fatalf("response_format = %q, want %q", format, want)
		}
	}
}

func TestResponseMetadataFallbacks(t *testing.T) {
	body := []byte("abc")
	tests := []struct {
		name        string
		op          node.Operation
		req         node.Request
		contentType string
	}{
		{"image", node.OpGenerateImage, node.Request{Prompt: "fox"}, "image/png"},
		{"reference", node.OpGenerateImageWithReference, node.Request{Prompt: "fox", ReferenceImage: "https://example.com/cat.png"}, "image/png"},
		{"speech", node.OpGenerateSpeech, node.Request{Prompt: "hi", Options: node.Options{ResponseFormat: "flac"}}, "audio/flac"},
		{"music", node.OpGenerateMusic, node.Request{Prompt: "song"}, "audio/mpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/explicit length", func(t *testing.T) {
			n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header()["Content-Type"] = nil
				w.Header().Set("Content-Length", "3")
				_, _ = w.Write(body)
			})
			items, err := n.Execute(context.Background(), tt.op, []node.Request{tt.req})
			if err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			response := items[0].JSON["response"].(map[string]interface{})
			if response["contentType"] != tt.contentType {
				t.Fatalf("contentType = %v, want %s", response["contentType"], tt.contentType)
			}
			if response["contentLength"] != "3" {
				t.Fatalf("contentLength = %#v, want \"3\"", response["contentLength"])
			}
		})
		t.Run(tt.name+"/chunked", func(t *testing.T) {
			n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header()["Content-Type"] = nil
				w.(http.Flusher).Flush()
				_, _ = w.Write(body)
			})
			items, err := n.Execute(context.Background(), tt.op, []node.Request{tt.req})
			if err != nil {
				t.Fatalf("Execute returned error: %v", err)
			}
			response := items[0].JSON["response"].(map[string]interface{})
			if response["contentType"] != tt.contentType {
				t.Fatalf("contentType = %v, want %s", response["contentType"], tt.contentType)
			}
			length, ok := response["contentLength"]
			if !ok || length != nil {
				t.Fatalf("contentLength = %#v (present %v), want nil", length, ok)
			}
			if !reflect.DeepEqual(items[0].Binary.Data, body) {
				t.Fatalf("data = %q", items[0].Binary.Data)
			}
		})
	}

	t.Run("text", func(t *testing.T) {
		n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header()["Content-Type"] = nil
			w.Header().Set("Content-Length", "3")
			_, _ = w.Write(body)
		})
		items, err := n.Execute(context.Background(), node.OpGenerateText, []node.Request{{Prompt: "hi"}})
		if err != nil {
			t.Fatalf("Execute returned error: %v", err)
		}
		response := items[0].JSON["response"].(map[string]interface{})
		if response["contentType"] != "text/plain" {
			t.Fatalf("contentType = %v, want text/plain", response["contentType"])
		}
		if _, ok := response["contentLength"]; ok {
			t.Fatalf("text item carries contentLength: %v", response)
		}
	})
}

func TestMusicQuery(t *testing.T) {
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if want := "model=elevenmusic&duration=30&instrumental=true"; r.URL.RawQuery != want {
			t.Errorf("query = %q, want %q", r.URL.RawQuery, want)
		}
		_, _ = w.Write([]byte("audio"))
	})
	items, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{
		"operation":    "generateMusic",
		"musicPrompt":  "lofi beat",
		"musicModel":   "elevenmusic",
		"instrumental": true,
	}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if items[0].Binary.FileName != "music.mp3" {
		t.Fatalf("file name = %q", items[0].Binary.FileName)
	}
}

func TestContinueOnFailKeepsOrder(t *testing.T) {
	n, rec := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("text"))
	})
	n.ContinueOnFail = true

	src := node.SliceSource{
		{"operation": "generateText", "textPrompt": "good one"},
		{"operation": "generateText", "textPrompt": "bad one"},
		{"operation": "generateText", "textPrompt": ""},
		{"operation": "generateText", "textPrompt": "good two"},
	}
	items, err := n.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].JSON["text"] != "text" || items[3].JSON["text"] != "text" {
		t.Fatalf("successful items = %v, %v", items[0].JSON, items[3].JSON)
	}
	if msg, _ := items[1].JSON["error"].(string); !strings.HasPrefix(msg, "Rate limit exceeded") {
		t.Fatalf("items[1] = %v", items[1].JSON)
	}
	if msg, _ := items[2].JSON["error"].(string); msg != "Prompt is required" {
		t.Fatalf("items[2] = %v", items[2].JSON)
	}
	if got := len(rec.paths()); got != 3 {
		t.Fatalf("requests = %d, want 3", got)
	}
}

func TestFirstFailureAborts(t *testing.T) {
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	items, err := n.Execute(context.Background(), node.OpGenerateText, []node.Request{{Prompt: "a"}, {Prompt: "b"}})
	if err == nil || len(items) != 0 {
		t.Fatalf("items = %v, err = %v", items, err)
	}
	var oe *apierrors.OperationError
	if !errors.As(err, &oe) || oe.Node != node.Name {
		t.Fatalf("err = %#v", err)
	}
}

func TestUnknownOperation(t *testing.T) {
	n, _ := newNode(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := n.Run(context.Background(), node.MapSource{Params: map[string]interface{}{"operation": "generateVideo"}}); err == nil {
		t.Fatalf("expected error")
	}
}
