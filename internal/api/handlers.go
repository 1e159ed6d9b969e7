package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bull/docqa/internal/indexer"
	"github.com/bull/docqa/internal/jobs"
	"github.com/bull/docqa/internal/qa"
)

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		jsonError(w, "No file found", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.opts.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return
	}

	filename := sanitizeFilename(header.Filename)
	jobID, err := s.service.Submit(r.Context(), filename, data)
	if err != nil {
		status := http.StatusInternalServerError
		var ingestErr *indexer.IngestError
		if errors.As(err, &ingestErr) && ingestErr.Kind != indexer.KindIndex {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{
			"job_id":   jobID,
			"filename": filename,
			"error":    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"job_id":   jobID,
		"filename": filename,
		"status":   string(jobs.StateReady),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	writeJSON(w, http.StatusOK, s.service.Status(r.Context(), jobID))
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	// A malformed body is treated as a missing question, reported after the
	// job lookup so unknown jobs always answer 404.
	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		req.Question = ""
	}

	answer, err := s.service.Ask(r.Context(), jobID, req.Question)
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		jsonError(w, "Chatbot not found", http.StatusNotFound)
		return
	case errors.Is(err, qa.ErrEmptyQuestion):
		jsonError(w, `Missing "question" in the request body`, http.StatusBadRequest)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
