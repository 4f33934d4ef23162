package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

type stubPhotos struct {
	gotName string
	gotData []byte
	err     error
}

func (s *stubPhotos) Upload(ctx context.Context, file io.Reader, filename string, size int64) (*domain.Photo, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	s.gotName = filename
	s.gotData = data
	return &domain.Photo{
		Key:         "uploads/abc.png",
		URL:         "http://files.test/uploads/abc.png",
		Filename:    filename,
		ContentType: "image/png",
		SizeBytes:   size,
	}, nil
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newPhotoMux(photos *stubPhotos) *http.ServeMux {
	mux := http.NewServeMux()
	NewPhotoHandler(photos, discardLogger()).RegisterRoutes(mux)
	return mux
}

func TestPhotoUpload(t *testing.T) {
	photos := &stubPhotos{}
	body, contentType := multipartBody(t, "photo", "roof.png", []byte("png-bytes"))

	req := httptest.NewRequest("POST", "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newPhotoMux(photos).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "http://files.test/uploads/abc.png", rec.Header().Get("Location"))
	assert.Equal(t, "roof.png", photos.gotName)
	assert.Equal(t, []byte("png-bytes"), photos.gotData)

	var photo domain.Photo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &photo))
	assert.Equal(t, "uploads/abc.png", photo.Key)
}

func TestPhotoUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		build      func(t *testing.T) (io.Reader, string)
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name: "not multipart",
			build: func(t *testing.T) (io.Reader, string) {
				return bytes.NewBufferString(`{"photo":"x"}`), "application/json"
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name: "missing photo field",
			build: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "image", "roof.png", []byte("x"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name: "service rejects type",
			build: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "photo", "notes.txt", []byte("hello"))
			},
			svcErr:     domain.Invalid("PhotoService.Upload", "Unsupported photo type"),
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name: "service reports too large",
			build: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "photo", "big.png", []byte("x"))
			},
			svcErr:     domain.Errorf(domain.ETOOLARGE, "PhotoService.Upload", "Photo exceeds the maximum size"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   domain.ETOOLARGE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := tt.build(t)
			req := httptest.NewRequest("POST", "/api/uploads", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			newPhotoMux(&stubPhotos{err: tt.svcErr}).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			var resp JSONError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
