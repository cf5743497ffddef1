package statement

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

const (
	PDFEngineFitz = "fitz"
	PDFEnginePure = "pure"
)

// NewPDFTextReader returns the reader for engine. MuPDF (fitz) is the default;
// "pure" selects a reader that builds without cgo.
func NewPDFTextReader(engine string, logger *zap.Logger) PDFTextReader {
	if strings.EqualFold(engine, PDFEnginePure) {
		return &PureReader{}
	}
	return NewFitzReader(logger)
}

// FitzReader extracts text page by page with go-fitz.
type FitzReader struct {
	logger *zap.Logger
}

func NewFitzReader(logger *zap.Logger) *FitzReader {
	return &FitzReader{logger: logger}
}

func (r *FitzReader) Text(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			r.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}

		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

// PureReader extracts text with dslipak/pdf.
type PureReader struct{}

func (PureReader) Text(data []byte) (text string, err error) {
	// the parser panics on some malformed xref tables
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
