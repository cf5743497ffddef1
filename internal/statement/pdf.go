package statement

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"expense-ingest/internal/models"

	"go.uber.org/zap"
)

// <date> <description...> <amount>[-][C|D]
var statementLine = regexp.MustCompile(`^(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(-?[\d.,]*\d-?)\s?([CD])?$`)

// PDFTextReader pulls embedded text out of a digital PDF.
type PDFTextReader interface {
	Text(data []byte) (string, error)
}

// TextRecognizer runs OCR over a document that has no embedded text.
type TextRecognizer interface {
	Recognize(ctx context.Context, fileName string, data []byte) (string, error)
}

// PDFExtractor reads statement lines from a PDF, falling back to OCR for
// scanned documents.
type PDFExtractor struct {
	reader PDFTextReader
	ocr    TextRecognizer
	logger *zap.Logger
}

func NewPDFExtractor(reader PDFTextReader, ocr TextRecognizer, logger *zap.Logger) *PDFExtractor {
	return &PDFExtractor{
		reader: reader,
		ocr:    ocr,
		logger: logger,
	}
}

func (e *PDFExtractor) Format() string { return "pdf" }

func (e *PDFExtractor) Extract(ctx context.Context, fileName string, data []byte) ([]models.RawTransaction, error) {
	text, err := e.reader.Text(data)
	if err != nil {
		e.logger.Warn("Digital PDF extraction failed, trying OCR",
			zap.String("file", fileName),
			zap.Error(err),
		)
		text = ""
	}

	method := "digital"
	if strings.TrimSpace(text) == "" {
		if e.ocr == nil {
			return nil, fmt.Errorf("%w: no embedded text and OCR is not configured", ErrUnreadableDocument)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err = e.ocr.Recognize(ctx, fileName, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: OCR returned no text", ErrUnreadableDocument)
		}
		method = "ocr"
	}

	txs, skipped := parseStatementText(text)
	e.logger.Info("PDF statement parsed",
		zap.String("file", fileName),
		zap.String("method", method),
		zap.Int("transactions", len(txs)),
		zap.Int("skipped", skipped),
	)

	return txs, nil
}

// parseStatementText matches each line against statementLine. A line that
// does not match continues the description of the previous transaction.
// Only non-zero debits are returned; skipped counts the dropped lines.
func parseStatementText(text string) ([]models.RawTransaction, int) {
	type entry struct {
		tx    models.RawTransaction
		debit bool
	}

	var (
		txs     []models.RawTransaction
		current *entry
		skipped int
	)
	flush := func() {
		if current == nil {
			return
		}
		if current.debit {
			txs = append(txs, current.tx)
		} else {
			skipped++
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := statementLine.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				current.tx.Description += " " + line
			}
			continue
		}

		flush()
		current = &entry{
			tx: models.RawTransaction{
				Date:        m[1],
				Description: strings.TrimSpace(m[2]),
				Amount:      m[3],
			},
			debit: isDebit(m[3], m[4]) && nonZero(m[3]),
		}
	}
	flush()

	return txs, skipped
}

// isDebit reads the explicit C/D marker first, then the sign of the amount,
// leading or trailing. An unsigned amount without a marker is not a debit.
func isDebit(amount, marker string) bool {
	switch marker {
	case "D":
		return true
	case "C":
		return false
	}
	return strings.HasPrefix(amount, "-") || strings.HasSuffix(amount, "-")
}

func nonZero(amount string) bool {
	v, ok := SignedAmount(amount)
	return ok && !v.IsZero()
}
