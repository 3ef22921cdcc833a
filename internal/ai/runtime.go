package ai

import "context"

// Runtime is a model backend able to answer a chat request, such as a local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// ModelLister is implemented by runtimes that can report installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]InstalledModel, error)
}

var (
	_ Runtime     = (*OllamaClient)(nil)
	_ ModelLister = (*OllamaClient)(nil)
)
