// Command openai-stub is a minimal OpenAI-compatible server that answers
// every chat completion with a fixed landing page. It backs offline runs of
// converhtml -prompt.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const landingPage = "```html\n" + `<header id="topo">
  <style>#topo{display:flex;justify-content:space-between;padding:24px;background:#0b0f19;color:#e0e0e0}</style>
  <h2>Café Aurora</h2>
  <a class="btn" href="#contato">Fale conosco</a>
</header>
<section id="hero">
  <style>#hero{display:flex;flex-direction:column;gap:16px;background:linear-gradient(135deg,#0f172a,#312e81);border-radius:24px;box-shadow:0 10px 30px rgba(0,0,0,.4)}
  #hero h1{font-size:72px;color:#a5f3fc}</style>
  <h1>Seu café, do grão à xícara</h1>
  <p>Torras artesanais entregues fresquinhas na sua porta.</p>
  <img src="https://picsum.photos/seed/cafe/800/600" alt="Xícara de café">
  <button>Assinar agora</button>
</section>
<section id="recursos">
  <style>#recursos{display:flex;flex-wrap:wrap;gap:24px}#recursos article{backdrop-filter:blur(12px);border-radius:16px;background:rgba(255,255,255,.06)}</style>
  <article><h3>Frescor</h3><p>Torra semanal.</p></article>
  <article><h3>Origem</h3><p>Fazendas parceiras do Sul de Minas.</p></article>
</section>
<footer id="contato"><p>© 2026 Café Aurora</p></footer>` + "\n```"

type chatRequest struct {
	Model string `json:"model"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug().Str("model", req.Model).Msg("chat completion")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": landingPage}},
			},
		})
	})

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}
