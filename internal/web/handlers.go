package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oddbit-ops/sheetsearch/internal/core"
)

// Identity headers set by the authenticating front door. Authentication
// itself is outside this service; the gate only needs who is calling.
const (
	headerUserID    = "X-User-Id"
	headerUserRoles = "X-User-Roles"
)

// identityFrom extracts the caller identity and roles from the request.
func identityFrom(r *http.Request) (string, []string) {
	id := strings.TrimSpace(r.Header.Get(headerUserID))
	if id == "" {
		id = "anonymous"
	}
	var roles []string
	for _, role := range strings.Split(r.Header.Get(headerUserRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return id, roles
}

// handleUpload ingests one spreadsheet from a multipart form.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024*1024)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, &core.ValidationError{Code: "FILE004", Reason: "no file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	uploadedBy, _ := identityFrom(r)
	contentType := header.Header.Get("Content-Type")

	summary, err := s.service.Upload(r.Context(), data, header.Filename, contentType, uploadedBy)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// handleGetFile returns a file summary with sheet metadata.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.fileID(w, r)
	if !ok {
		return
	}

	detail, err := s.service.GetFile(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleListFiles returns one page of active files.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	list, err := s.service.ListFiles(r.Context(), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleDownload streams the original stored bytes of a file.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.fileID(w, r)
	if !ok {
		return
	}

	name, blob, err := s.service.OpenBlob(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	io.Copy(w, blob)
}

// handleDeleteFile soft-deletes a file after the ownership gate.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.fileID(w, r)
	if !ok {
		return
	}

	requesterID, roles := identityFrom(r)
	if err := s.service.Delete(r.Context(), id, requesterID, roles); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch runs a multi-keyword cell search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := core.SearchRequest{
		Keywords:  strings.Split(q.Get("keywords"), ","),
		SheetName: q.Get("sheetName"),
	}
	req.Page, req.PageSize = pagination(r)

	if raw := q.Get("fileId"); raw != "" {
		fileID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file ID")
			return
		}
		req.FileID = &fileID
	}

	result, err := s.service.Search(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStats returns live aggregate counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.GetStats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth reports service and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fileID parses the fileID URL parameter, writing a 400 on failure.
func (s *Server) fileID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file ID")
		return uuid.Nil, false
	}
	return id, true
}

// pagination parses page/pageSize query parameters, leaving zero values
// for the service to clamp against configured bounds.
func pagination(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	return page, pageSize
}
