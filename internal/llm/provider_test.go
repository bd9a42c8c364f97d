package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestUserMessage(t *testing.T) {
	m := UserMessage("olá", "")
	if m.Role != openai.ChatMessageRoleUser || m.Content != "olá" || m.MultiContent != nil {
		t.Fatalf("plain message: %+v", m)
	}
	m = UserMessage("olá", "data:image/png;base64,AAAA")
	if m.Content != "" || len(m.MultiContent) != 2 {
		t.Fatalf("image message: %+v", m)
	}
	if m.MultiContent[0].Text != "olá" || m.MultiContent[1].ImageURL == nil || m.MultiContent[1].ImageURL.URL != "data:image/png;base64,AAAA" {
		t.Fatalf("unexpected parts: %+v", m.MultiContent)
	}
}

func TestNewOpenAI_UsesBaseURL(t *testing.T) {
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"m1","object":"model"}]}`))
	}))
	defer srv.Close()

	var p interface {
		Client
		ModelLister
	} = NewOpenAI(srv.URL+"/v1/", "sk-test", srv.Client())
	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if path != "/v1/models" || auth != "Bearer sk-test" {
		t.Fatalf("unexpected request path=%q auth=%q", path, auth)
	}
	if len(models.Models) != 1 || models.Models[0].ID != "m1" {
		t.Fatalf("unexpected models %+v", models)
	}
}
