package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/ShelfLife2025/receipt-ai-backend/internal/extraction"
)

// setCORSHeaders sets CORS headers on a response. The service is
// wide open by design; it sits behind clients we do not control.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// handleHealth reports service liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScan accepts a multipart receipt upload and returns the parsed
// item list. The upload may arrive under either the "image" or "file"
// field; "image" wins when both are present.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := s.uploadedFile(r)
	if err != nil {
		jsonError(w, `no file provided under "image" or "file"`, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	if len(data) == 0 {
		jsonError(w, "uploaded file is empty", http.StatusBadRequest)
		return
	}

	items, err := s.service.ParseImage(r.Context(), data)
	if err != nil {
		s.writeParseError(w, header.Filename, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// uploadedFile resolves the upload from the accepted field names.
// Content type and filename are deliberately not validated; clients
// routinely omit or misreport them, and the OCR service rejects
// unreadable payloads itself.
func (s *Server) uploadedFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	f, header, err := r.FormFile("image")
	if err == nil {
		return f, header, nil
	}
	return r.FormFile("file")
}

// writeParseError maps pipeline error kinds to HTTP status codes
func (s *Server) writeParseError(w http.ResponseWriter, filename string, err error) {
	var formatErr *extraction.FormatError
	var validationErr *extraction.ValidationError

	switch {
	case errors.Is(err, extraction.ErrNoItems):
		setCORSHeaders(w)
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &formatErr):
		slog.Error("Model returned unparseable content", "filename", filename, "error", err)
		jsonError(w, formatErr.Error(), http.StatusBadGateway)
	case errors.As(err, &validationErr):
		slog.Error("Parsed items failed validation", "filename", filename, "error", err)
		jsonError(w, validationErr.Error(), http.StatusUnprocessableEntity)
	default:
		slog.Error("Error parsing receipt", "filename", filename, "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}
