package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 64 << 10

// uploadResponse summarises a successful ingest.
type uploadResponse struct {
	FileName string           `json:"fileName"`
	Rows     int              `json:"rows"`
	Schema   core.Schema      `json:"schema"`
	Report   reportResponse   `json:"report"`
	Info     core.SessionInfo `json:"info"`
}

// handleUpload replaces the dataset with the uploaded CSV. The file is held
// in memory; the session rejects anything over the configured size.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, r, &core.FileConstraintError{Reason: fmt.Sprintf("file too large: limit is %d bytes", maxSize)}, 0)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), 0)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, 0)
		return
	}
	defer file.Close()

	if err := s.session.CheckFile(header.Filename, header.Size); err != nil {
		respondError(w, r, err, 0)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rep, err := s.session.Ingest(ctx, header.Filename, data)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	info := s.session.Info()
	writeJSON(w, uploadResponse{
		FileName: header.Filename,
		Rows:     info.Rows,
		Schema:   info.Schema,
		Report:   s.newReportResponse(rep, nil),
		Info:     info,
	})
}
