package web

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/KaramelBytes/eda-cli/internal/ai"
	"github.com/KaramelBytes/eda-cli/internal/analysis"
	"github.com/KaramelBytes/eda-cli/internal/pipeline"
)

type pageData struct {
	Report string
	Images []string
	Error  string
}

// AnalyzeResponse is the JSON body of a successful /api/analyze call.
type AnalyzeResponse struct {
	RunID    string   `json:"run_id"`
	Report   string   `json:"report"`
	Images   []string `json:"images"`
	Warnings []string `json:"warnings"`
}

// ErrorResponse is the JSON body of a failed call.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// requestError carries an HTTP status for failures before the pipeline runs.
type requestError struct {
	status int
	kind   string
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzeUpload(w, r)
	if err != nil {
		status, _ := classify(err)
		s.renderPage(w, status, pageData{Error: err.Error()})
		return
	}
	s.renderPage(w, http.StatusOK, pageData{Report: res.Report, Images: imageURLs(res.Images)})
}

func (s *Server) handleAnalyzeAPI(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzeUpload(w, r)
	if err != nil {
		status, kind := classify(err)
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{Error: err.Error(), Kind: kind})
		return
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	render.JSON(w, r, AnalyzeResponse{
		RunID:    res.RunID,
		Report:   res.Report,
		Images:   imageURLs(res.Images),
		Warnings: warnings,
	})
}

// handleImage serves a generated image by base name from the output directory.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		!strings.EqualFold(filepath.Ext(name), ".png") {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.cfg.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}

// analyzeUpload stores the multipart "file" field under a per-request temp directory
// and runs the pipeline on it.
func (s *Server) analyzeUpload(w http.ResponseWriter, r *http.Request) (*pipeline.Result, error) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, kind: "upload_too_large", err: err}
		}
		return nil, &requestError{status: http.StatusBadRequest, kind: "bad_request", err: err}
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, &requestError{status: http.StatusBadRequest, kind: "bad_request", err: errors.New("missing upload field \"file\"")}
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(hdr.Filename, "\\", "/")))
	if name == "/" || name == "." {
		name = "upload.csv"
	}
	tmpDir := filepath.Join(os.TempDir(), "eda-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)
	tmpPath := filepath.Join(tmpDir, name)
	dst, err := os.Create(tmpPath)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	s.runs.Lock()
	defer s.runs.Unlock()
	s.logger.InfoContext(r.Context(), "analysis requested", "upload", hdr.Filename, "bytes", hdr.Size)
	return s.analyzer.Run(r.Context(), tmpPath)
}

// classify maps an error to an HTTP status and a short kind for API clients.
func classify(err error) (int, string) {
	var re *requestError
	var fe *analysis.FileError
	var ie *analysis.ImputationError
	var mu *ai.ModelUnavailableError
	switch {
	case errors.As(err, &re):
		return re.status, re.kind
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity, "file_error"
	case errors.As(err, &ie):
		return http.StatusUnprocessableEntity, "imputation_error"
	case errors.As(err, &mu):
		return http.StatusBadGateway, "model_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func imageURLs(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, "/images/"+filepath.Base(p))
	}
	return out
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Error("render page", "error", err)
	}
}
