package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/server/notify"
	"github.com/dmitrijs2005/gophdrop/internal/server/upload"
)

// Form fields of the upload protocol.
const (
	FieldFilename     = "resumableFilename"
	FieldRelativePath = "resumableRelativePath"
	FieldChunkNumber  = "resumableChunkNumber"
	FieldTotalChunks  = "resumableTotalChunks"
	FieldTotalSize    = "resumableTotalSize"
	FieldIdentifier   = "resumableIdentifier"
	FieldFile         = "file"
)

const multipartMemory = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// uploadFilename reduces a client file name to its last path element.
func uploadFilename(raw string) string {
	name := path.Base("/" + strings.ReplaceAll(raw, "\\", "/"))
	if name == "/" || name == "." || name == ".." {
		return "file"
	}
	return name
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "Bad request")
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func (s *HTTPServer) handleProbe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filename := uploadFilename(q.Get(FieldFilename))
	index, _ := strconv.Atoi(q.Get(FieldChunkNumber))

	present, err := s.uploads.Probe(r.Context(), q.Get(FieldIdentifier), filename, index)
	switch {
	case errors.Is(err, common.ErrTooBig):
		writeJSON(w, http.StatusUnprocessableEntity, "Chunk too big")
	case errors.Is(err, common.ErrBadFile):
		writeJSON(w, http.StatusUnprocessableEntity, "Bad file")
	case err != nil:
		s.logger.Error(r.Context(), "probe failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
	case present:
		writeJSON(w, http.StatusOK, "Chunk exists")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, "Bad file")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(FieldFile)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, "Bad file")
		return
	}
	defer file.Close()

	index, _ := strconv.Atoi(r.FormValue(FieldChunkNumber))
	totalChunks, _ := strconv.Atoi(r.FormValue(FieldTotalChunks))
	totalSize, _ := strconv.ParseInt(r.FormValue(FieldTotalSize), 10, 64)

	rawName := r.FormValue(FieldFilename)
	if rawName == "" {
		rawName = "file"
	}

	user := UserFrom(r.Context())
	chunk := upload.Chunk{
		Identifier:  r.FormValue(FieldIdentifier),
		Filename:    uploadFilename(rawName),
		Index:       index,
		TotalChunks: totalChunks,
		TotalSize:   totalSize,
		Destination: r.FormValue(FieldRelativePath),
		HomeDir:     user.HomeDir,
		Size:        header.Size,
		Data:        file,
	}

	res, err := s.uploads.Ingest(r.Context(), chunk)
	switch {
	case errors.Is(err, common.ErrBadFile):
		writeJSON(w, http.StatusUnprocessableEntity, "Bad file")
	case errors.Is(err, common.ErrTooBig):
		writeJSON(w, http.StatusUnprocessableEntity, "Chunk too big")
	case res == upload.ResultStoreFailed:
		writeJSON(w, http.StatusInternalServerError, res.String())
	case err != nil:
		s.logger.Error(r.Context(), "ingest failed", "identifier", chunk.Identifier, "error", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
	default:
		writeJSON(w, http.StatusOK, res.String())
	}
}

type dispatchRequest struct {
	Folder string `json:"folder"`
}

type dispatchResponse struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (s *HTTPServer) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil || req.Folder == "" {
		writeJSON(w, http.StatusBadRequest, "Bad request")
		return
	}

	out, err := s.dispatcher.DispatchFolder(r.Context(), req.Folder)
	resp := dispatchResponse{Outcome: out.String()}
	if err != nil {
		resp.Error = err.Error()
	}

	switch {
	case errors.Is(err, common.ErrLockUnavailable):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, resp)
	case out == notify.Sent:
		writeJSON(w, http.StatusOK, resp)
	case out == notify.NoPending:
		writeJSON(w, http.StatusNotFound, resp)
	case err != nil && !errors.Is(err, common.ErrDispatchFailure):
		s.logger.Error(r.Context(), "dispatch failed", "folder", req.Folder, "error", err)
		writeJSON(w, http.StatusInternalServerError, resp)
	default:
		writeJSON(w, http.StatusConflict, resp)
	}
}

type pendingEntry struct {
	Folder      string   `json:"folder"`
	Files       []string `json:"files"`
	FirstUpload int64    `json:"firstUpload"`
	LastUpload  int64    `json:"lastUpload"`
}

func (s *HTTPServer) handlePending(w http.ResponseWriter, r *http.Request) {
	entries, err := s.backlog.Pending(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "pending listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, "Internal error")
		return
	}

	out := make([]pendingEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, pendingEntry{Folder: e.Folder, Files: e.Files, FirstUpload: e.FirstUpload, LastUpload: e.LastUpload})
	}
	writeJSON(w, http.StatusOK, out)
}
