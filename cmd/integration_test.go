package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleCSV = "age,city\n25,NYC\n,LA\n35,NYC\n"

// resetFlags restores every flag to its default so sticky values from earlier
// invocations do not leak between tests.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns what it wrote to stdout and
// stderr.
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// fakeOllama answers /api/chat with reply (or status) and /api/tags with one model.
func fakeOllama(t *testing.T, status int, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			if status != http.StatusOK {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"message": map[string]string{"role": "assistant", "content": reply},
				"done":    true,
			})
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"deepseek-coder:latest","size":776080839,"details":{"parameter_size":"1B"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCLI_AnalyzeNoInsightsWritesReportAndImages(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, home, "people.csv", peopleCSV)
	outDir := filepath.Join(home, "plots")
	report := filepath.Join(home, "out", "report.txt")

	stdout, _, err := runCmd(t, "analyze", data, "--no-insights", "--out-dir", outDir, "--output", report)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Wrote report to")

	b, err := os.ReadFile(report)
	require.NoError(t, err)
	text := string(b)
	assert.True(t, strings.HasPrefix(text, "EDA Complete: people.csv"))
	assert.Contains(t, text, "[SUMMARY]")
	assert.Contains(t, text, "[MISSING VALUES]")
	assert.Contains(t, text, "(insights skipped)")

	assert.FileExists(t, filepath.Join(outDir, "age_hist.png"))
	assert.FileExists(t, filepath.Join(outDir, "heatmap.png"))
}

func TestCLI_AnalyzeWithModelInsights(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, home, "people.csv", peopleCSV)
	srv := fakeOllama(t, http.StatusOK, "Age is centred on 30.")

	stdout, _, err := runCmd(t, "analyze", data, "--ollama-host", srv.URL, "--out-dir", home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[AI INSIGHTS]\nAge is centred on 30.")
}

func TestCLI_AnalyzeJSONFormat(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, home, "people.csv", peopleCSV)

	stdout, _, err := runCmd(t, "analyze", data, "--no-insights", "--out-dir", home, "--format", "json")
	require.NoError(t, err)
	var got analyzeJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "people.csv", got.File)
	assert.NotEmpty(t, got.RunID)
	assert.Len(t, got.Images, 2)
	assert.Empty(t, got.Warnings)
}

func TestCLI_AnalyzeModelUnavailable(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, home, "people.csv", peopleCSV)
	srv := fakeOllama(t, http.StatusNotFound, "")

	// default: statistics-only fallback
	stdout, stderr, err := runCmd(t, "analyze", data, "--ollama-host", srv.URL, "--out-dir", home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(insights unavailable:")
	assert.Contains(t, stdout, "[NOTES]")
	assert.Contains(t, stderr, "⚠ Warning: insights unavailable:")
	assert.NotContains(t, stdout, "⚠ Warning:")

	// required: the run fails
	_, _, err = runCmd(t, "analyze", data, "--ollama-host", srv.URL, "--out-dir", home, "--require-insights")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama serve")
}

func TestCLI_AnalyzeRejectsBadInput(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, home, "people.csv", peopleCSV)

	_, _, err := runCmd(t, "analyze", filepath.Join(home, "missing.csv"), "--no-insights", "--out-dir", home)
	assert.Error(t, err)

	_, _, err = runCmd(t, "analyze", data, "--no-insights", "--delimiter", "::")
	assert.ErrorContains(t, err, "unsupported --delimiter")

	_, _, err = runCmd(t, "analyze", data, "--no-insights", "--require-insights")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, _, err = runCmd(t, "analyze", data, "--no-insights", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported --format")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)

	_, _, err := runCmd(t, "config", "set", "model", "llama3:latest")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".eda", "config.yaml"))

	stdout, _, err := runCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "model: llama3:latest")
	assert.Contains(t, stdout, "listen_addr: :7860")

	_, _, err = runCmd(t, "config", "set", "max_upload_mb", "-4")
	assert.Error(t, err)
	_, _, err = runCmd(t, "config", "set", "no_such_key", "x")
	assert.ErrorContains(t, err, "unknown key")
}

func TestCLI_ModelsMarksConfiguredModel(t *testing.T) {
	isolateHome(t)
	srv := fakeOllama(t, http.StatusOK, "")

	stdout, _, err := runCmd(t, "models", "--ollama-host", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deepseek-coder:latest")
	assert.Contains(t, stdout, "16384")
	assert.Contains(t, stdout, "✓ Configured model deepseek-coder:latest is installed")
}

func TestCLI_ModelsWarnsWhenConfiguredModelMissing(t *testing.T) {
	isolateHome(t)
	srv := fakeOllama(t, http.StatusOK, "")

	_, _, err := runCmd(t, "config", "set", "model", "llama3:latest")
	require.NoError(t, err)
	stdout, stderr, err := runCmd(t, "models", "--ollama-host", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deepseek-coder:latest")
	assert.NotContains(t, stdout, "✓ Configured model")
	assert.Contains(t, stderr, "⚠ Warning: configured model llama3:latest is not installed")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.0 KiB", humanBytes(1024))
	assert.Equal(t, "740.1 MiB", humanBytes(776080839))
}
