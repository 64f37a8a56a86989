package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/document"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeS3 serves path-style object requests from memory
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = data
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", f.types[r.URL.Path])
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*S3PDFStorage, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3PDFStorage(&config.StorageConfig{
		Bucket:       "documents",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     srv.URL,
		UsePathStyle: true,
	}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	return s, fake
}

func TestNewS3PDFStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{Bucket: "b", AccessKey: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3PDFStorage(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewS3PDFStorage_Defaults(t *testing.T) {
	s, err := NewS3PDFStorage(&config.StorageConfig{
		Bucket:    "my-bucket",
		AccessKey: "k",
		SecretKey: "s",
		Endpoint:  "localhost:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", s.GetBucket())
	assert.Equal(t, 15*time.Minute, s.presignExpiration)

	s, err = NewS3PDFStorage(&config.StorageConfig{
		Bucket:    "my-bucket",
		AccessKey: "k",
		SecretKey: "s",
	}, WithPresignExpiration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"", false, "http://localhost:9000"},
		{"minio:9000", false, "http://minio:9000"},
		{"minio:9000", true, "https://minio:9000"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeEndpoint(tt.in, tt.useSSL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3PDFStorage_StoreGetDelete(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()
	req := &printing.StoreRequest{
		DocType:    document.DocTypeQuote,
		DocumentID: uuid.New(),
		Number:     "T-100",
		IssuedAt:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		PDFData:    []byte("%PDF-1.4 archived"),
	}

	res, err := s.Store(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, printing.ArchiveKey(req), res.Key)
	assert.True(t, strings.HasPrefix(res.Key, "quote/2024/06/T-100-"))
	assert.Contains(t, res.URL, res.Key)

	stored := fake.objects["/documents/"+res.Key]
	assert.Equal(t, req.PDFData, stored)
	assert.Equal(t, "application/pdf", fake.types["/documents/"+res.Key])

	exists, err := s.Exists(ctx, res.Key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Get(ctx, res.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, req.PDFData, data)

	require.NoError(t, s.Delete(ctx, res.Key))
	exists, err = s.Exists(ctx, res.Key)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Get(ctx, res.Key)
	require.Error(t, err)
	assert.True(t, printing.IsRenderError(err, printing.ErrCodeStorageFailed))
}

func TestS3PDFStorage_Validation(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Store(ctx, &printing.StoreRequest{DocType: document.DocTypeInvoice})
	assert.True(t, printing.IsRenderError(err, printing.ErrCodeStorageFailed))

	_, err = s.Get(ctx, "")
	assert.Error(t, err)
	assert.Error(t, s.Delete(ctx, ""))
	_, err = s.Exists(ctx, "")
	assert.Error(t, err)
}
