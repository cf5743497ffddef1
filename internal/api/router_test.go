package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expense-ingest/internal/api/handlers"
	"expense-ingest/internal/classifier"
	"expense-ingest/internal/dto"
	"expense-ingest/internal/repository/memory"
	"expense-ingest/internal/service"
	"expense-ingest/internal/statement"
	"expense-ingest/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOwner int64 = 42

type stubSender struct {
	err    error
	labels []string
}

func (s *stubSender) SendFeedback(_ context.Context, _, label string) error {
	s.labels = append(s.labels, label)
	return s.err
}

func (s *stubSender) Retrain(context.Context) error { return s.err }

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	sender *stubSender
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, RouterConfig{BodyLimit: 1 << 20})
}

func newTestServerWithConfig(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	logger := zap.NewNop()

	registry := statement.NewRegistry()
	registry.Register(statement.NewCSVExtractor(logger))
	registry.Register(statement.NewPDFExtractor(stubPDFReader{}, nil, logger))
	dispatcher := statement.NewDispatcher(registry, logger)

	store := memory.NewStore()
	cls := classifier.New(store.Expenses(), classifier.DefaultKeywordTable(), nil, logger)
	sender := &stubSender{}

	ingestion := service.NewIngestionService(dispatcher, cls, store.Categories(), store.Expenses(), store.Statements(), logger)
	feedback := service.NewFeedbackService(store.Expenses(), store.Categories(), sender, logger)

	jwtManager := auth.NewJWTManager("test-secret")
	token, err := jwtManager.GenerateToken(testOwner, time.Hour)
	require.NoError(t, err)

	app := SetupRouter(
		handlers.NewExpenseHandler(ingestion, feedback, logger),
		handlers.NewStatementHandler(ingestion, logger),
		jwtManager,
		cfg,
		logger,
	)
	return &testServer{app: app, store: store, sender: sender, token: token}
}

type stubPDFReader struct{}

func (stubPDFReader) Text([]byte) (string, error) { return "", nil }

func (s *testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func uploadRequest(t *testing.T, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpload_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	req := uploadRequest(t, "extrato.csv", "date,description,amount\n")
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp := s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpload_CSV(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, uploadRequest(t, "extrato.csv", "date,description,amount\n2024-03-05,IFOOD DELIVERY,45.90\n"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, 1, out.Count)
	assert.False(t, out.Partial)
	assert.Equal(t, "Alimentacao", out.Expenses[0].Category)
	assert.Equal(t, "45.90", out.Expenses[0].Amount)
	assert.Equal(t, "2024-03-05", out.Expenses[0].Date)

	assert.Len(t, s.store.Expenses().List(testOwner), 1)
}

func TestUpload_StopsWhenServerShutsDown(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	s := newTestServerWithConfig(t, RouterConfig{BodyLimit: 1 << 20, BaseContext: base})
	cancel()

	resp := s.do(t, uploadRequest(t, "extrato.csv", "date,description,amount\n2024-03-05,IFOOD DELIVERY,45.90\n"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Empty(t, s.store.Expenses().List(testOwner))
}

func TestUpload_UnsupportedFormat(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, uploadRequest(t, "extrato.ofx", "x"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUpload_UnreadablePDF(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, uploadRequest(t, "scan.pdf", "%PDF-1.4"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpload_MissingFile(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses/upload", nil)
	resp := s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeedback(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp := s.do(t, uploadRequest(t, "extrato.csv", "date,description,amount\n2024-03-05,POSTO SHELL,120.00\n"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Expenses, 1)

	cat, err := s.store.Categories().FindOrCreate(ctx, testOwner, "Transporte")
	require.NoError(t, err)

	feedback := func(expenseID, body string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses/"+expenseID+"/feedback", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return s.do(t, req).StatusCode
	}

	assert.Equal(t, http.StatusNoContent, feedback(out.Expenses[0].ID, `{"categoryId":"`+cat.ID.String()+`"}`))
	assert.Equal(t, []string{"Transporte"}, s.sender.labels)

	assert.Equal(t, http.StatusBadRequest, feedback("not-a-uuid", `{"categoryId":"`+cat.ID.String()+`"}`))
	assert.Equal(t, http.StatusBadRequest, feedback(out.Expenses[0].ID, `{"categoryId":"nope"}`))
	assert.Equal(t, http.StatusBadRequest, feedback(out.Expenses[0].ID, `{}`))
	assert.Equal(t, http.StatusNotFound, feedback(cat.ID.String(), `{"categoryId":"`+cat.ID.String()+`"}`))

	s.sender.err = errors.New("ml down")
	assert.Equal(t, http.StatusBadGateway, feedback(out.Expenses[0].ID, `{"categoryId":"`+cat.ID.String()+`"}`))
}

func TestRetrain(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/ml/retrain", nil))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	s.sender.err = errors.New("ml down")
	resp = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/ml/retrain", nil))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestListStatements(t *testing.T) {
	s := newTestServer(t)

	s.do(t, uploadRequest(t, "extrato.csv", "date,description,amount\n2024-03-05,IFOOD,45.90\n"))
	s.do(t, uploadRequest(t, "extrato.ofx", "x"))

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/statements?limit=10", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.StatementListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Statements, 2)
	assert.Equal(t, 10, out.Limit)

	statuses := []string{out.Statements[0].Status, out.Statements[1].Status}
	assert.ElementsMatch(t, []string{"completed", "failed"}, statuses)
}
