package ai

import "time"

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest asks a runtime for a single, non-streamed reply.
type GenerateRequest struct {
	Model    string
	Messages []Message
	Options  GenerateOptions
}

// GenerateOptions are sampling and sizing knobs. Zero values leave the runtime's
// own defaults in place.
type GenerateOptions struct {
	Temperature float64
	// NumPredict caps the number of generated tokens.
	NumPredict int
	// NumCtx sets the context window the runtime allocates for this request.
	NumCtx int
}

func (o GenerateOptions) asMap() map[string]any {
	m := map[string]any{}
	if o.Temperature > 0 {
		m["temperature"] = o.Temperature
	}
	if o.NumPredict > 0 {
		m["num_predict"] = o.NumPredict
	}
	if o.NumCtx > 0 {
		m["num_ctx"] = o.NumCtx
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// Usage reports token counts measured by the runtime.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total is prompt plus completion tokens.
func (u Usage) Total() int { return u.PromptTokens + u.CompletionTokens }

// GenerateResponse is a runtime's reply.
type GenerateResponse struct {
	Model   string
	Content string
	// DoneReason is "stop" for a natural end and "length" when NumPredict cut it short.
	DoneReason string
	Usage      Usage
	// Elapsed is the runtime-reported processing time, load time included.
	Elapsed   time.Duration
	RequestID string
}

// Text returns the reply content, or "" for a nil response.
func (r *GenerateResponse) Text() string {
	if r == nil {
		return ""
	}
	return r.Content
}
