package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	url      string
	filename string
	err      error

	gotExt  string
	gotData []byte
}

func (m *mockUploader) SaveUpload(r io.Reader, ext string) (string, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	m.gotExt = ext
	m.gotData = data
	if m.err != nil {
		return "", "", m.err
	}
	return m.url, m.filename, nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func uploadRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	t.Run("stores an accepted image", func(t *testing.T) {
		content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1024)...)
		uploader := &mockUploader{url: "/images/abc.png", filename: "abc.png"}
		handler := NewUploadHandler(uploader)

		rec := httptest.NewRecorder()
		handler.Upload(rec, uploadRequest(t, uploadField, content))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp UploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "/images/abc.png", resp.ImageURL)
		assert.Equal(t, "abc.png", resp.UploadID)

		assert.Equal(t, ".png", uploader.gotExt)
		assert.Equal(t, content, uploader.gotData, "sniffed bytes must be replayed into the stored file")
	})

	t.Run("rejects a missing file", func(t *testing.T) {
		handler := NewUploadHandler(&mockUploader{})

		rec := httptest.NewRecorder()
		handler.Upload(rec, uploadRequest(t, "wrong_field", pngHeader))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No file provided")
	})

	t.Run("rejects an unsupported type", func(t *testing.T) {
		handler := NewUploadHandler(&mockUploader{})

		rec := httptest.NewRecorder()
		handler.Upload(rec, uploadRequest(t, uploadField, []byte("definitely not an image")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid file type")
	})

	t.Run("rejects an oversized file", func(t *testing.T) {
		content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxUploadBytes)...)
		handler := NewUploadHandler(&mockUploader{})

		rec := httptest.NewRecorder()
		handler.Upload(rec, uploadRequest(t, uploadField, content))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "File size too large")
	})

	t.Run("storage failure is sanitized", func(t *testing.T) {
		uploader := &mockUploader{err: errors.New("disk full")}
		handler := NewUploadHandler(uploader)

		rec := httptest.NewRecorder()
		handler.Upload(rec, uploadRequest(t, uploadField, pngHeader))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "disk full")
	})
}
