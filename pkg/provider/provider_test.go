package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "missing token", cfg: Config{APIBase: "https://api.example", Model: "m"}},
		{name: "missing base", cfg: Config{AccessToken: "t", Model: "m"}},
		{name: "missing model", cfg: Config{AccessToken: "t", APIBase: "https://api.example"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); err == nil {
				t.Fatal("expected config validation error")
			}
		})
	}
}

func TestChatClient_Chat(t *testing.T) {
	var gotPath string
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Api-Key")

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "hello from the model"}}]}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIBase: srv.URL, Model: "gpt-test", AccessToken: "secret"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	answer, err := c.Chat(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "say hello"},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if answer != "hello from the model" {
		t.Fatalf("answer = %q", answer)
	}
	if !strings.Contains(gotPath, "gpt-test") {
		t.Errorf("request path %q does not target the model deployment", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("api-key header = %q", gotKey)
	}
}

func TestChatClient_EmptyPrompt(t *testing.T) {
	c, err := New(Config{APIBase: "https://api.example", Model: "m", AccessToken: "t"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.Chat(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestChatClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIBase: srv.URL, Model: "m", AccessToken: "t"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error when completion has no choices")
	}
}
