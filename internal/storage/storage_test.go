package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	key := "certificates/abc/documents/doc.pdf"

	require.NoError(t, s.Put(ctx, key, strings.NewReader("%PDF-1.4"), PutOptions{}))

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
	assert.Equal(t, int64(8), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)

	url, err := s.URL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/"+key, url)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	_, _, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_Overwrite(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()
	key := "certificates/abc/thumbnails/00.jpg"

	require.NoError(t, s.Put(ctx, key, strings.NewReader("one"), PutOptions{}))

	err := s.Put(ctx, key, strings.NewReader("two"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	require.NoError(t, s.Put(ctx, key, strings.NewReader("two"), PutOptions{Overwrite: true}))
	rc, _, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(body))
}

func TestLocalStorage_MaxSize(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	err := s.Put(ctx, "big.bin", bytes.NewReader(make([]byte, 11)), PutOptions{MaxSize: 10})
	assert.ErrorIs(t, err, ErrTooLarge)

	exists, err := s.Exists(ctx, "big.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, s.Put(ctx, "ok.bin", bytes.NewReader(make([]byte, 10)), PutOptions{MaxSize: 10}))
}

func TestLocalStorage_InvalidKeys(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.txt", "certificates/../../etc/passwd", "/abs/path"} {
		t.Run(key, func(t *testing.T) {
			err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
			assert.ErrorIs(t, err, ErrInvalidKey)

			var se *StorageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "Put", se.Op)
		})
	}
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	s := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "a.txt", strings.NewReader("x"), PutOptions{}), context.Canceled)
	_, err := s.Exists(ctx, "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := New(Config{Provider: ProviderLocal, Local: LocalConfig{BasePath: t.TempDir()}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, st)

	st, err = New(Config{Provider: ProviderS3, S3: S3Config{
		Endpoint: "http://localhost:9000", Bucket: "certs", UsePathStyle: true,
	}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, st)

	_, err = New(Config{Provider: ProviderS3}, logger)
	assert.Error(t, err)

	_, err = New(Config{Provider: "ftp"}, logger)
	assert.Error(t, err)
}

func TestS3Storage_PublicURL(t *testing.T) {
	s, err := NewS3Storage(S3Config{
		Bucket:    "certs",
		PublicURL: "https://files.example.com/",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	url, err := s.URL(context.Background(), "certificates/x/documents/y.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/certificates/x/documents/y.pdf", url)

	_, err = s.URL(context.Background(), "../y.pdf", 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeyHelpers(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")

	doc := CertificateDocumentKey(id, "pdf")
	assert.True(t, strings.HasPrefix(doc, "certificates/123e4567-e89b-12d3-a456-426614174000/documents/"))
	assert.True(t, strings.HasSuffix(doc, ".pdf"))
	assert.NotEqual(t, doc, CertificateDocumentKey(id, "pdf"))

	assert.Equal(t, "certificates/123e4567-e89b-12d3-a456-426614174000/thumbnails/03.jpg",
		CertificateThumbnailKey(id, 3))
	assert.NoError(t, validateKey(doc))

	upload := PhotoUploadKey(id, ".png")
	assert.Equal(t, "uploads/123e4567-e89b-12d3-a456-426614174000.png", upload)
	assert.NoError(t, validateKey(upload))
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		filename string
		data     io.Reader
		want     string
	}{
		{"provided wins", "image/png", "x.jpg", nil, "image/png"},
		{"extension", "", "doc.pdf", nil, "application/pdf"},
		{"sniffed", "", "blob", strings.NewReader("%PDF-1.7 rest"), "application/pdf"},
		{"fallback", "", "blob", nil, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectContentType(tt.provided, tt.filename, tt.data))
		})
	}
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsImage("image/webp"))
	assert.True(t, IsDecodableImage("image/JPEG; q=1"))
	assert.False(t, IsDecodableImage("image/heic"))
	assert.True(t, IsPDF("application/pdf"))
	assert.True(t, IsHTML("text/html; charset=utf-8"))
	assert.False(t, IsHTML("text/plain"))
}

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"missing object", &StorageError{Op: "Get", Key: "a.pdf", Err: ErrNotFound}, domain.ENOTFOUND},
		{"oversized upload", &StorageError{Op: "Put", Key: "a.jpg", Err: ErrTooLarge}, domain.ETOOLARGE},
		{"bad key", &StorageError{Op: "Put", Key: "../a", Err: ErrInvalidKey}, domain.EINVALID},
		{"provider outage", &StorageError{Op: "URL", Key: "a.pdf", Err: ErrAccessDenied}, domain.EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ToDomainError(tt.err, "test.op", "Failed to reach storage")
			assert.Equal(t, tt.code, domain.ErrorCode(err))
		})
	}

	assert.NoError(t, ToDomainError(nil, "test.op", "unused"))
	var de *domain.Error
	require.True(t, errors.As(ToDomainError(errors.New("timeout"), "test.op", "Failed to reach storage"), &de))
	assert.Equal(t, "Failed to reach storage", de.Message)
}
