package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"expense-ingest/internal/classifier"
	"expense-ingest/internal/models"
	"expense-ingest/internal/repository/memory"
	"expense-ingest/internal/statement"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	label string
	err   error
	calls int
}

func (f *fakeModel) Classify(context.Context, string) (string, error) {
	f.calls++
	return f.label, f.err
}

// failingExpenses accepts the first `ok` inserts and rejects the rest.
type failingExpenses struct {
	ExpenseStore
	ok int
}

func (f *failingExpenses) Create(ctx context.Context, e *models.Expense) error {
	if f.ok == 0 {
		return errors.New("connection reset")
	}
	f.ok--
	return f.ExpenseStore.Create(ctx, e)
}

type ingestFixture struct {
	store *memory.Store
	model *fakeModel
	svc   *IngestionService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	logger := zap.NewNop()

	registry := statement.NewRegistry()
	registry.Register(statement.NewCSVExtractor(logger))
	dispatcher := statement.NewDispatcher(registry, logger)

	store := memory.NewStore()
	model := &fakeModel{err: errors.New("ml down")}
	cls := classifier.New(store.Expenses(), classifier.DefaultKeywordTable(), model, logger)

	svc := NewIngestionService(dispatcher, cls, store.Categories(), store.Expenses(), store.Statements(), logger)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }

	return &ingestFixture{store: store, model: model, svc: svc}
}

func TestIngest_CSVEndToEnd(t *testing.T) {
	f := newIngestFixture(t)
	data := []byte("date,description,amount\n2024-03-05,IFOOD DELIVERY,45.90\n")

	expenses, err := f.svc.Ingest(context.Background(), 1, "extrato.csv", data)
	require.NoError(t, err)
	require.Len(t, expenses, 1)

	exp := expenses[0]
	assert.Equal(t, "Alimentacao", exp.CategoryName)
	assert.True(t, decimal.RequireFromString("45.90").Equal(exp.Amount))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), exp.Date)
	assert.Equal(t, "IFOOD DELIVERY", exp.Description)
	assert.Equal(t, "ifood delivery", exp.DescriptionKey)
	assert.Equal(t, 0, f.model.calls)

	cat, err := f.store.Categories().FindByNameAndOwner(context.Background(), 1, "Alimentacao")
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, cat.ID, exp.CategoryID)
}

func TestIngest_DropsNonPositiveRows(t *testing.T) {
	f := newIngestFixture(t)
	data := []byte("date,description,amount\n" +
		"2024-03-05,IFOOD,45.90\n" +
		"2024-03-06,ESTORNO,-10.00\n" +
		"2024-03-07,NADA,0\n")

	expenses, err := f.svc.Ingest(context.Background(), 1, "extrato.csv", data)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}

func TestIngest_UsesHistoryBeforeKeywords(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	lazer, err := f.store.Categories().FindOrCreate(ctx, 1, "Lazer")
	require.NoError(t, err)
	require.NoError(t, f.store.Expenses().Create(ctx, &models.Expense{
		ID:             uuid.New(),
		OwnerID:        1,
		CategoryID:     lazer.ID,
		Description:    "Uber 123",
		DescriptionKey: "uber 123",
		Amount:         decimal.NewFromInt(10),
		Date:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	expenses, err := f.svc.Ingest(ctx, 1, "extrato.csv", []byte("data;descricao;valor\n02/02/2024;UBER 123;25,00\n"))
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Lazer", expenses[0].CategoryName)
}

func TestIngest_UnknownDescriptionFallsBackToDefault(t *testing.T) {
	f := newIngestFixture(t)

	expenses, err := f.svc.Ingest(context.Background(), 1, "extrato.csv", []byte("date,description,amount\n2024-03-05,ACME XPTO,12.00\n"))
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, models.DefaultCategory, expenses[0].CategoryName)
	assert.Equal(t, 1, f.model.calls)
}

func TestIngest_UnsupportedFormatIsRecordedAsFailed(t *testing.T) {
	f := newIngestFixture(t)

	expenses, err := f.svc.Ingest(context.Background(), 7, "extrato.xlsx", []byte("x"))
	require.ErrorIs(t, err, statement.ErrUnsupportedFormat)
	assert.Empty(t, expenses)

	list, err := f.svc.ListStatements(context.Background(), 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatementStatusFailed, list[0].Status)
	assert.Equal(t, "xlsx", list[0].Format)
	assert.NotEmpty(t, list[0].Error)
}

func TestIngest_PersistenceFailureKeepsPrefix(t *testing.T) {
	f := newIngestFixture(t)
	f.svc.expenses = &failingExpenses{ExpenseStore: f.store.Expenses(), ok: 1}

	data := []byte("date,description,amount\n" +
		"2024-03-05,IFOOD,45.90\n" +
		"2024-03-06,UBER,20.00\n" +
		"2024-03-07,FARMACIA,8.00\n")

	expenses, err := f.svc.Ingest(context.Background(), 1, "extrato.csv", data)
	require.ErrorIs(t, err, ErrPersistence)
	assert.True(t, IsPartial(err))
	require.Len(t, expenses, 1)
	assert.Equal(t, "IFOOD", expenses[0].Description)

	list, err := f.svc.ListStatements(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatementStatusPartial, list[0].Status)
	assert.Equal(t, 1, list[0].ExpenseCount)
}

func TestIngest_CancelledContext(t *testing.T) {
	f := newIngestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := &staticExtractor{txs: []models.RawTransaction{{Description: "IFOOD", Amount: "10", Date: "2024-01-01"}}}
	f.svc.extractor = extractor

	expenses, err := f.svc.Ingest(ctx, 1, "extrato.csv", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, expenses)
	assert.Empty(t, f.store.Expenses().List(1))
}

func TestIngest_CompletedStatementLinksExpenses(t *testing.T) {
	f := newIngestFixture(t)

	expenses, err := f.svc.Ingest(context.Background(), 3, "extrato.csv", []byte("date,description,amount\n2024-03-05,IFOOD,45.90\n"))
	require.NoError(t, err)

	list, err := f.svc.ListStatements(context.Background(), 3, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatementStatusCompleted, list[0].Status)
	assert.Equal(t, 1, list[0].ExpenseCount)
	require.NotNil(t, expenses[0].StatementID)
	assert.Equal(t, list[0].ID, *expenses[0].StatementID)
}

func TestNormalize_SanitizesDescription(t *testing.T) {
	f := newIngestFixture(t)

	tx := f.svc.normalize(models.RawTransaction{Description: "  PADARIA\xff  ", Amount: "R$ 1.234,56", Date: "31/12/2024"})
	assert.Equal(t, "PADARIA", tx.Description)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(tx.Amount))
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), tx.Date)
}

type staticExtractor struct {
	txs []models.RawTransaction
}

func (s *staticExtractor) Extract(context.Context, string, []byte) ([]models.RawTransaction, error) {
	return s.txs, nil
}
