package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"expense-ingest/pkg/config"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// OCRClient sends scanned statements to a remote OCR service.
//
//	POST /extract_text (multipart, field "file") -> {"text": ...}
type OCRClient struct {
	baseURL    string
	httpClient *http.Client
	policy     callPolicy
	logger     *zap.Logger
}

func NewOCRClient(cfg *config.OCRConfig, logger *zap.Logger) *OCRClient {
	return &OCRClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{},
		policy:     newCallPolicy(cfg.Timeout, cfg.RetryBackoff),
		logger:     logger,
	}
}

type ocrResponse struct {
	Text string `json:"text"`
}

// Recognize returns the text the OCR service read from the document.
func (c *OCRClient) Recognize(ctx context.Context, fileName string, data []byte) (string, error) {
	var text string
	err := c.policy.do(ctx, func(ctx context.Context) error {
		var err error
		text, err = c.upload(ctx, fileName, data)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: ocr: %w", ErrExternalService, err)
	}

	text = strings.TrimSpace(sanitizeUTF8(text))
	if text == "" {
		return "", fmt.Errorf("%w: ocr returned no text", ErrExternalService)
	}

	c.logger.Info("Text recognized",
		zap.String("file", fileName),
		zap.String("method", "http"),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

func (c *OCRClient) upload(ctx context.Context, fileName string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract_text", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}

	var out ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Text, nil
}

// TesseractOCR renders every PDF page with MuPDF and reads it with a local
// tesseract installation.
type TesseractOCR struct {
	language string
	dpi      float64
	timeout  time.Duration
	logger   *zap.Logger
}

func NewTesseractOCR(cfg *config.OCRConfig, logger *zap.Logger) *TesseractOCR {
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 300
	}
	lang := cfg.Language
	if lang == "" {
		lang = "por"
	}
	return &TesseractOCR{language: lang, dpi: dpi, timeout: cfg.Timeout, logger: logger}
}

// Recognize stops between pages once the configured timeout elapses.
func (t *TesseractOCR) Recognize(ctx context.Context, fileName string, data []byte) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}

	var text strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrExternalService, err)
		}

		img, err := doc.ImagePNG(i, t.dpi)
		if err != nil {
			t.logger.Warn("Failed to render page",
				zap.Int("page", i+1),
				zap.String("file", fileName),
				zap.Error(err),
			)
			continue
		}
		if err := client.SetImageFromBytes(img); err != nil {
			return "", fmt.Errorf("failed to load page %d: %w", i+1, err)
		}
		pageText, err := client.Text()
		if err != nil {
			t.logger.Warn("Failed to recognize page",
				zap.Int("page", i+1),
				zap.String("file", fileName),
				zap.Error(err),
			)
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	result := strings.TrimSpace(sanitizeUTF8(text.String()))
	t.logger.Info("Text recognized",
		zap.String("file", fileName),
		zap.String("method", "tesseract"),
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(result)),
	)
	return result, nil
}
