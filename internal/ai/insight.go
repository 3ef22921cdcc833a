package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/KaramelBytes/eda-cli/internal/utils"
)

// InsightPrompt prefixes the statistics block sent to the model.
const InsightPrompt = "You are a data analyst. Provide insights based on this data summary:\n\n"

// DefaultInsightTimeout bounds a single insight request.
const DefaultInsightTimeout = 180 * time.Second

// ollamaDefaultCtx is the context window Ollama allocates when none is requested.
const ollamaDefaultCtx = 2048

// InsightGenerator asks a model runtime to interpret a statistics block.
type InsightGenerator struct {
	Runtime Runtime
	Model   string
	// Host is reported in ModelUnavailableError; informational only.
	Host    string
	Timeout time.Duration
	Logger  *slog.Logger
}

// BuildInsightPrompt embeds stats into the fixed analyst instruction.
func BuildInsightPrompt(stats string) string {
	return InsightPrompt + stats
}

// Generate returns the model's reply verbatim. Any failure, including an empty reply,
// is reported as *ModelUnavailableError.
func (g *InsightGenerator) Generate(ctx context.Context, stats string) (string, error) {
	model := g.Model
	if model == "" {
		model = DefaultModel
	}
	log := g.Logger
	if log == nil {
		log = slog.Default()
	}
	unavailable := func(err error) error {
		return &ModelUnavailableError{Model: model, Host: g.Host, Err: err}
	}
	if g.Runtime == nil {
		return "", unavailable(errors.New("no model runtime configured"))
	}

	prompt := BuildInsightPrompt(stats)
	tokens := utils.CountTokens(prompt)
	var opts GenerateOptions
	if mi, ok := LookupModel(model); ok {
		if tokens > mi.ContextTokens {
			log.WarnContext(ctx, "prompt may exceed model context window",
				"model", model, "prompt_tokens", tokens, "context_tokens", mi.ContextTokens)
		}
		// wide tables overflow the default window and get silently truncated
		if tokens > ollamaDefaultCtx/2 {
			opts.NumCtx = mi.ContextTokens
		}
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultInsightTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	log.DebugContext(ctx, "requesting insights", "model", model, "prompt_tokens", tokens, "num_ctx", opts.NumCtx)
	resp, err := g.Runtime.Generate(ctx, GenerateRequest{
		Model:    model,
		Messages: []Message{{Role: "user", Content: prompt}},
		Options:  opts,
	})
	if err != nil {
		return "", unavailable(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", unavailable(ErrEmptyResponse)
	}
	log.InfoContext(ctx, "insights generated", "model", model, "duration", time.Since(start).Round(time.Millisecond),
		"completion_tokens", resp.Usage.CompletionTokens, "done_reason", resp.DoneReason)
	return text, nil
}
