package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/stickerforge/sticker-api/internal/api/shared"
)

// Upload limits mirrored from the web client: one source photo per
// request, at most 10MB, in a browser-displayable format.
const (
	MaxUploadBytes = 10 << 20
	uploadField    = "image"
)

// uploadExtensions maps the accepted upload MIME types to stored file
// extensions. Detection uses the file contents, not the client-supplied
// filename.
var uploadExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Uploader stores a caller-provided source photo and returns its public
// URL plus the generated filename. Satisfied by storage.LocalImageStore.
type Uploader interface {
	SaveUpload(r io.Reader, ext string) (string, string, error)
}

// UploadHandler handles source photo upload HTTP requests.
type UploadHandler struct {
	store Uploader
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(store Uploader) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload handles POST /api/upload requests carrying one multipart image
// field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "File size too large. Maximum 10MB allowed.")
			return
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	// Sniff the content type from the first bytes rather than trusting
	// the part header.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to upload file", err)
		return
	}
	head = head[:n]

	ext, ok := uploadExtensions[http.DetectContentType(head)]
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Invalid file type. Only JPEG, PNG, and WebP are allowed.")
		return
	}

	url, filename, err := h.store.SaveUpload(io.MultiReader(bytes.NewReader(head), file), ext)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to upload file", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UploadResponse{
		ImageURL: url,
		UploadID: filename,
	})
}
