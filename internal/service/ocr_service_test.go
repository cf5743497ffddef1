package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expense-ingest/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOCRClient(url string) *OCRClient {
	return NewOCRClient(&config.OCRConfig{URL: url, Timeout: time.Second, RetryBackoff: time.Millisecond}, zap.NewNop())
}

func TestOCRClient_UploadsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract_text", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		body, _ := io.ReadAll(file)

		assert.Equal(t, "scan.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4", string(body))

		_, _ = w.Write([]byte(`{"text":"  05/03 PADARIA 12,00 D \n"}`))
	}))
	defer srv.Close()

	text, err := newTestOCRClient(srv.URL).Recognize(context.Background(), "scan.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "05/03 PADARIA 12,00 D", text)
}

func TestOCRClient_EmptyTextIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	_, err := newTestOCRClient(srv.URL).Recognize(context.Background(), "scan.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrExternalService)
}

func TestOCRClient_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	srv.Close()

	_, err := newTestOCRClient(srv.URL).Recognize(context.Background(), "scan.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrExternalService)
}

func TestTesseractOCR_Defaults(t *testing.T) {
	ocr := NewTesseractOCR(&config.OCRConfig{Timeout: 30 * time.Second}, zap.NewNop())
	assert.Equal(t, "por", ocr.language)
	assert.Equal(t, 300.0, ocr.dpi)
	assert.Equal(t, 30*time.Second, ocr.timeout)
}

func TestTesseractOCR_StopsWhenContextDone(t *testing.T) {
	ocr := NewTesseractOCR(&config.OCRConfig{Timeout: time.Minute}, zap.NewNop())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := ocr.Recognize(ctx, "scan.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrExternalService)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "ok", sanitizeUTF8("ok"))
	assert.Equal(t, "café", sanitizeUTF8("caf\xffé"))
	assert.Equal(t, "ab", sanitizeUTF8("a\x00b"))
}
