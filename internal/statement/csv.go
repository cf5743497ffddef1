package statement

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"expense-ingest/internal/models"
	"expense-ingest/pkg/textnorm"

	"go.uber.org/zap"
)

// Header aliases, already folded (lowercase, no accents).
var (
	descriptionAliases = []string{"descricao", "description", "memo", "merchant_name", "transaction_description", "historico"}
	amountAliases      = []string{"valor", "amount", "total", "transaction_amount"}
	dateAliases        = []string{"data", "date", "transaction_date"}
	typeAliases        = []string{"tipo", "type", "transaction_type"}

	creditTypes = map[string]bool{"c": true, "cr": true, "credit": true, "credito": true, "entrada": true, "receita": true, "income": true}
)

// csvColumns holds, per field, every matching column ranked by alias order.
type csvColumns struct {
	description []int
	amount      []int
	date        []int
	kind        []int
}

// CSVExtractor reads delimited statement exports with a header row.
type CSVExtractor struct {
	logger *zap.Logger
}

func NewCSVExtractor(logger *zap.Logger) *CSVExtractor {
	return &CSVExtractor{logger: logger}
}

func (e *CSVExtractor) Format() string { return "csv" }

func (e *CSVExtractor) Extract(ctx context.Context, fileName string, data []byte) ([]models.RawTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := decodeText(data)
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %w", ErrUnreadableDocument, err)
	}

	cols := resolveColumns(header)
	if len(cols.description) == 0 || len(cols.amount) == 0 || len(cols.date) == 0 {
		e.logger.Warn("CSV header is missing required columns, every row will be skipped",
			zap.String("file", fileName),
			zap.Strings("header", header),
		)
	}

	var txs []models.RawTransaction
	skipped := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV: %w", ErrUnreadableDocument, err)
		}

		line, _ := r.FieldPos(0)
		tx, err := parseCSVRow(record, cols)
		if err != nil {
			skipped++
			e.logger.Debug("CSV row skipped", zap.Int("line", line), zap.Error(err))
			continue
		}
		txs = append(txs, tx)
	}

	if skipped > 0 {
		e.logger.Info("CSV rows skipped", zap.String("file", fileName), zap.Int("skipped", skipped))
	}

	return txs, nil
}

func parseCSVRow(record []string, cols csvColumns) (models.RawTransaction, error) {
	tx := models.RawTransaction{
		Description: field(record, cols.description),
		Amount:      field(record, cols.amount),
		Date:        field(record, cols.date),
	}
	if tx.Description == "" || tx.Amount == "" || tx.Date == "" {
		return tx, fmt.Errorf("%w: missing required field", ErrRowSkipped)
	}

	if creditTypes[textnorm.Fold(field(record, cols.kind))] {
		return tx, fmt.Errorf("%w: credit entry", ErrRowSkipped)
	}

	amount, ok := SignedAmount(tx.Amount)
	if !ok || !amount.IsPositive() {
		return tx, fmt.Errorf("%w: non-expense amount %q", ErrRowSkipped, tx.Amount)
	}
	return tx, nil
}

func resolveColumns(header []string) csvColumns {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = textnorm.Fold(h)
	}

	match := func(aliases []string) []int {
		var idx []int
		for _, alias := range aliases {
			for i, name := range folded {
				if name == alias {
					idx = append(idx, i)
				}
			}
		}
		return idx
	}

	return csvColumns{
		description: match(descriptionAliases),
		amount:      match(amountAliases),
		date:        match(dateAliases),
		kind:        match(typeAliases),
	}
}

// sniffDelimiter picks the most frequent of ',', ';' and tab on the header line.
func sniffDelimiter(text string) rune {
	header := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header = text[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// field returns the first non-empty value among the candidate columns.
func field(record []string, idx []int) string {
	for _, i := range idx {
		if i >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[i]); v != "" {
			return v
		}
	}
	return ""
}
