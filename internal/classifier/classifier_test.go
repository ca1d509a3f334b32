package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func TestSimpleClassifier_Suggest(t *testing.T) {
	c := NewSimpleClassifier(5)
	tests := []struct {
		name, title, link string
		want              []string
	}{
		{"host hint", "Some talk", "https://www.youtube.com/watch?v=1", []string{"video"}},
		{"hashtags and category", "Golang tutorial #Concurrency", "https://example.com/post", []string{"concurrency", "learning", "programming"}},
		{"pdf", "Paper", "https://example.com/paper.PDF", []string{"document"}},
		{"nothing", "hello", "not a url", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Suggest(context.Background(), tt.title, tt.link)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimpleClassifier_MaxTags(t *testing.T) {
	c := NewSimpleClassifier(1)
	got := c.Suggest(context.Background(), "#b #a", "https://x.com")
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Suggest = %v, want [a]", got)
	}
}

func newTestGPT(t *testing.T, h http.HandlerFunc) *GPTClassifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return newGPTClassifier(cfg, "gpt-test", 50, 0, 3, zap.NewNop())
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	})
}

func TestGPTClassifier_Suggest(t *testing.T) {
	c := newTestGPT(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		chatReply(w, "```json\n[\"Go\", \"go\", \"Concurrency\", \"patterns\", \"extra\"]\n```")
	})

	got := c.Suggest(context.Background(), "Go concurrency", "https://go.dev")
	want := []string{"go", "concurrency", "patterns"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest = %v, want %v", got, want)
	}
}

func TestGPTClassifier_FallsBackOnBadReply(t *testing.T) {
	c := newTestGPT(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(w, "I think the tags are video and fun")
	})

	got := c.Suggest(context.Background(), "Talk", "https://youtu.be/x")
	if !reflect.DeepEqual(got, []string{"video"}) {
		t.Errorf("Suggest = %v, want fallback [video]", got)
	}
}

func TestGPTClassifier_FallsBackOnHTTPError(t *testing.T) {
	c := newTestGPT(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got := c.Suggest(context.Background(), "#reading", "https://example.com")
	if !reflect.DeepEqual(got, []string{"reading"}) {
		t.Errorf("Suggest = %v, want fallback [reading]", got)
	}
}
