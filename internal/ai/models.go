package ai

// Context window metadata for common local models, used to warn when a prompt is
// likely to be truncated.

type ModelInfo struct {
	Name          string
	ContextTokens int // approximate context window
}

// DefaultModel is the model asked for insights unless configured otherwise.
const DefaultModel = "deepseek-coder:latest"

var models = map[string]ModelInfo{
	"deepseek-coder:latest":   {Name: "deepseek-coder:latest", ContextTokens: 16384},
	"deepseek-coder:6.7b":     {Name: "deepseek-coder:6.7b", ContextTokens: 16384},
	"deepseek-r1:latest":      {Name: "deepseek-r1:latest", ContextTokens: 131072},
	"llama3:latest":           {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b-instruct":    {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
	"llama3.1:70b-instruct":   {Name: "llama3.1:70b-instruct", ContextTokens: 8192},
	"mistral-nemo:latest":     {Name: "mistral-nemo:latest", ContextTokens: 8192},
	"mistral:7b-instruct":     {Name: "mistral:7b-instruct", ContextTokens: 8192},
	"phi3:mini-4k-instruct":   {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
	"phi3:mini-128k-instruct": {Name: "phi3:mini-128k-instruct", ContextTokens: 128000},
	"qwen2.5:7b":              {Name: "qwen2.5:7b", ContextTokens: 32768},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}
