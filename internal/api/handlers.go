package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-translate/internal/cache"
	"github.com/alnah/go-translate/internal/format"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/output"
	"github.com/alnah/go-translate/internal/pipeline"
)

// resultJSON is the wire form of a pipeline.Result.
type resultJSON struct {
	Name       string   `json:"name"`
	JobID      string   `json:"job_id,omitempty"`
	OutputName string   `json:"output_name,omitempty"`
	Tokens     int      `json:"tokens"`
	Cost       string   `json:"cost"`
	SourceLang string   `json:"source_lang,omitempty"`
	Chunks     int      `json:"chunks,omitempty"`
	Translated string   `json:"translated,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Error      string   `json:"error,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

type totalJSON struct {
	Tokens int    `json:"tokens"`
	Cost   string `json:"cost"`
}

func toJSON(r pipeline.Result) resultJSON {
	out := resultJSON{
		Name:       r.Name,
		OutputName: r.OutputName,
		Tokens:     r.Estimate.Tokens,
		Cost:       r.Estimate.Cost.String(),
		SourceLang: r.SourceLang,
		Chunks:     r.Chunks,
		Translated: r.Translated,
		Summary:    r.Summary,
	}
	if r.Chunks > 0 {
		out.JobID = r.JobID.String()
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out
}

func writeResults(w http.ResponseWriter, results []pipeline.Result) {
	out := make([]resultJSON, 0, len(results))
	for _, r := range results {
		out = append(out, toJSON(r))
	}
	total := pipeline.Total(results)
	writeJSON(w, http.StatusOK, map[string]any{
		"results": out,
		"total":   totalJSON{Tokens: total.Tokens, Cost: total.Cost.String()},
	})
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	inputs, ok := s.readUploads(w, r)
	if !ok {
		return
	}
	p := pipeline.New(s.cfg.Limits, s.cfg.Counter, nil, pipeline.WithLogger(s.log))
	writeResults(w, p.Estimate(r.Context(), inputs))
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	inputs, ok := s.readUploads(w, r)
	if !ok {
		return
	}

	target, err := lang.Parse(r.FormValue("target"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if target.IsZero() {
		jsonError(w, "target is required", http.StatusBadRequest)
		return
	}

	private := false
	if v := r.FormValue("private"); v != "" {
		private, err = strconv.ParseBool(v)
		if err != nil {
			jsonError(w, fmt.Sprintf("invalid private value %q", v), http.StatusBadRequest)
			return
		}
	}

	policy := s.cfg.Cache
	if private {
		policy = cache.Disabled()
	}
	opts := []pipeline.Option{pipeline.WithCache(policy), pipeline.WithLogger(s.log)}
	if s.cfg.Summarizer != nil {
		opts = append(opts, pipeline.WithSummarizer(s.cfg.Summarizer))
	}
	p := pipeline.New(s.cfg.Limits, s.cfg.Counter, s.cfg.Translator, opts...)

	results, err := p.Process(r.Context(), inputs, target)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "zip" {
		s.writeZip(w, results)
		return
	}
	writeResults(w, results)
}

// writeZip answers with every successful output bundled, or 422 when
// nothing succeeded.
func (s *Server) writeZip(w http.ResponseWriter, results []pipeline.Result) {
	var files []output.File
	for _, r := range results {
		if r.OK() {
			files = append(files, output.File{Name: r.OutputName, Data: r.Output})
		}
	}
	if len(files) == 0 {
		jsonError(w, "no document could be translated", http.StatusUnprocessableEntity)
		return
	}
	data, err := output.Bundle(files)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.BundleName))
	_, _ = w.Write(data)
}

// readUploads parses the multipart "files" field. On failure it writes the
// error response and returns false.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]pipeline.Input, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "upload exceeds max size ("+format.Size(s.cfg.MaxUploadBytes)+")", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "at least one file is required in field \"files\"", http.StatusBadRequest)
		return nil, false
	}

	inputs := make([]pipeline.Input, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			jsonError(w, "failed to read "+h.Filename, http.StatusBadRequest)
			return nil, false
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			jsonError(w, "failed to read "+h.Filename, http.StatusBadRequest)
			return nil, false
		}
		inputs = append(inputs, pipeline.Input{Name: sanitizeFilename(h.Filename), Data: data})
	}
	return inputs, true
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
