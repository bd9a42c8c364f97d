// Package generate asks a chat model for a landing page in plain HTML and
// CSS, ready to be handed to the converter.
package generate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/deulaag/converhtmlelementor/internal/cache"
	"github.com/deulaag/converhtmlelementor/internal/llm"
)

const (
	// DefaultMaxTokens bounds the completion length.
	DefaultMaxTokens = 4000
	// DefaultTemperature keeps some variety between runs.
	DefaultTemperature float32 = 0.7
)

// SystemPrompt is the default instruction sent ahead of every request.
const SystemPrompt = `You are a senior frontend architect who builds page builder friendly designs.
Create landing page sections based on the user request.

The project targets the Brazilian market. All visible text MUST be in Brazilian Portuguese.

Rules:
1. Scoped CSS: put all CSS in a <style> block inside the section it styles and scope it with unique ids such as #hero-section-123.
2. No frameworks. No Tailwind, no Bootstrap. Plain CSS only.
3. Modern look: glassmorphism, bento grids, large typography, dark mode and neon glows.
4. Images: absolute public URLs only, for example https://picsum.photos/seed/xyz/800/600.
5. Output only the raw HTML including the <style> blocks. Do not wrap it in markdown code fences.
6. Layout: emit distinct sections (header, hero, features, footer) as siblings where possible.`

var (
	// ErrEmptyResponse indicates the model returned no usable markup.
	ErrEmptyResponse = errors.New("empty generation response")
	// ErrCacheMiss is returned in cache-only mode when no entry matches.
	ErrCacheMiss = errors.New("generation not in cache")
)

// Input describes one generation request.
type Input struct {
	Prompt string
	Model  string
	// Image is an optional reference picture sent alongside the prompt.
	Image []byte
}

// Generator calls the model and post-processes its answer.
type Generator struct {
	Client llm.Client
	Cache  *cache.Store
	// SystemPrompt, when non-empty, overrides the default system message.
	SystemPrompt string
	// ImageModel, when set, replaces Input.Model for requests that carry a
	// reference image.
	ImageModel  string
	MaxTokens   int
	Temperature float32
	// CacheOnly returns from cache and fails fast when the entry is missing.
	CacheOnly bool
}

// Generate returns the HTML produced for in.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	if g.Client == nil || strings.TrimSpace(in.Model) == "" {
		return "", errors.New("generator not configured")
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return "", errors.New("empty prompt")
	}
	system := SystemPrompt
	if strings.TrimSpace(g.SystemPrompt) != "" {
		system = g.SystemPrompt
	}
	user := "User request: " + strings.TrimSpace(in.Prompt)
	image := imageDataURL(in.Image)
	model := in.Model
	if image != "" && strings.TrimSpace(g.ImageModel) != "" {
		model = g.ImageModel
	}

	key := cache.KeyFrom(model, system, user, image)
	if g.Cache != nil {
		if raw, ok, _ := g.Cache.Get(ctx, key); ok {
			var out struct {
				HTML string `json:"html"`
			}
			if err := json.Unmarshal(raw, &out); err == nil && strings.TrimSpace(out.HTML) != "" {
				log.Debug().Str("stage", "generate").Str("key", key[:12]).Msg("cache hit")
				return out.HTML, nil
			}
		}
	}
	if g.CacheOnly {
		return "", ErrCacheMiss
	}

	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := g.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			llm.UserMessage(user, image),
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		N:           1,
	}
	resp, err := g.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("stage", "generate").Msg("completion failed; retrying once")
		if serr := sleep(ctx, retryDelay); serr != nil {
			return "", serr
		}
		resp, err = g.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("generation call (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := StripFences(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	if g.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"html": out})
		if err := g.Cache.Save(ctx, key, payload); err != nil {
			log.Warn().Err(err).Str("stage", "generate").Msg("cache save failed")
		}
	}
	return out, nil
}

var fenceRE = regexp.MustCompile("```(?:html|HTML)?")

// StripFences removes markdown code fences the model may add despite being
// told not to.
func StripFences(s string) string {
	return strings.TrimSpace(fenceRE.ReplaceAllString(s, ""))
}

func imageDataURL(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	mime := http.DetectContentType(b)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// retryDelay is a var so tests can shorten it.
var retryDelay = 100 * time.Millisecond

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
