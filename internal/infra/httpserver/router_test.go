package httpserver

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appreviews "github.com/yudhapratama/code-review-api/internal/application/reviews"
	domai "github.com/yudhapratama/code-review-api/internal/domain/ai"
	domain "github.com/yudhapratama/code-review-api/internal/domain/reviews"
	"github.com/yudhapratama/code-review-api/internal/middleware"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Insert(ctx context.Context, r *domain.ReviewReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) ListAll(ctx context.Context) ([]*domain.ReviewReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReviewReport), args.Error(1)
}

func (m *mockRepo) DeleteByID(ctx context.Context, id domain.ReportID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAI struct {
	mock.Mock
}

func (m *mockAI) Review(ctx context.Context, filename, code string) (string, error) {
	args := m.Called(ctx, filename, code)
	return args.String(0), args.Error(1)
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func newTestRouter(repo *mockRepo, ai *mockAI) http.Handler {
	svc := &appreviews.Service{
		Repo:  repo,
		AI:    ai,
		Clock: fixedClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		Log:   zap.NewNop(),
	}
	return NewRouter(svc, nil, []string{"http://localhost:3000"}, zap.NewNop())
}

func multipartUpload(t *testing.T, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("code_file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp["error"]
}

func TestCreateReview_ReturnsStoredReport(t *testing.T) {
	repo := new(mockRepo)
	ai := new(mockAI)

	raw := "Sure!\n{\"filename\":\"example.py\",\"summary\":\"ok\",\"suggestions\":{\"readability\":\"good\"},\"potential_bugs\":{}}\nAnything else?"
	ai.On("Review", mock.Anything, "example.py", "print(1)\n").Return(raw, nil).Once()
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*reviews.ReviewReport")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.ReviewReport).ID = 42
		}).
		Return(nil).Once()

	body, contentType := multipartUpload(t, "example.py", []byte("print(1)\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestRouter(repo, ai).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var got domain.ReviewReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.ReportID(42), got.ID)
	assert.Equal(t, "example.py", got.Filename)
	assert.Equal(t, "ok", got.Summary)
	assert.Equal(t, map[string]string{"readability": "good"}, got.Suggestions)
	assert.Equal(t, map[string]string{}, got.PotentialBugs)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.Timestamp)

	repo.AssertExpectations(t)
	ai.AssertExpectations(t)
}

func TestCreateReview_WithoutFileFieldIs400(t *testing.T) {
	repo := new(mockRepo)
	ai := new(mockAI)

	req := httptest.NewRequest(http.MethodPost, "/api/review", strings.NewReader("not a multipart body"))
	rec := httptest.NewRecorder()

	newTestRouter(repo, ai).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file was uploaded.", decodeError(t, rec.Body))
	ai.AssertNotCalled(t, "Review", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReview_OversizedUploadIs400(t *testing.T) {
	repo := new(mockRepo)
	ai := new(mockAI)

	body, contentType := multipartUpload(t, "big.txt", bytes.Repeat([]byte("a"), appreviews.MaxUploadBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestRouter(repo, ai).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File size exceeds the limit of 1MB.", decodeError(t, rec.Body))
	ai.AssertNotCalled(t, "Review", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReview_MalformedModelReplyIs500(t *testing.T) {
	repo := new(mockRepo)
	ai := new(mockAI)

	ai.On("Review", mock.Anything, "a.go", mock.Anything).
		Return("no json here, sorry", nil).Once()

	body, contentType := multipartUpload(t, "a.go", []byte("package a"))
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestRouter(repo, ai).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "LLM response was not valid JSON.", decodeError(t, rec.Body))
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateReview_UpstreamFailureIs500(t *testing.T) {
	repo := new(mockRepo)
	ai := new(mockAI)

	ai.On("Review", mock.Anything, "b.go", mock.Anything).
		Return("", errors.New("upstream on vacation")).Once()

	body, contentType := multipartUpload(t, "b.go", []byte("package b"))
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestRouter(repo, ai).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error during code review.", decodeError(t, rec.Body))
}

func TestCreateReview_QuotaExhaustionIsGeneric500(t *testing.T) {
	repo := new(mockRepo)
	ai := new(mockAI)

	ai.On("Review", mock.Anything, "c.go", mock.Anything).
		Return("", domai.ErrQuotaExceeded).Once()

	before := middleware.GetMetrics()["reviews_quota_exceeded"].(uint64)

	body, contentType := multipartUpload(t, "c.go", []byte("package c"))
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestRouter(repo, ai).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// the caller sees the generic failure, only metrics tell quota apart
	assert.Equal(t, "Internal server error during code review.", decodeError(t, rec.Body))
	assert.Equal(t, before+1, middleware.GetMetrics()["reviews_quota_exceeded"].(uint64))
}

func TestHistory_EmptyStoreReturnsEmptyArray(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListAll", mock.Anything).Return(nil, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()

	newTestRouter(repo, new(mockAI)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHistory_ReturnsStoredReports(t *testing.T) {
	repo := new(mockRepo)
	repo.On("ListAll", mock.Anything).Return([]*domain.ReviewReport{
		{
			ID:            2,
			Filename:      "late.go",
			Summary:       "second",
			Suggestions:   map[string]string{},
			PotentialBugs: map[string]string{},
			Timestamp:     "2024-05-01T12:00:05Z",
		},
		{
			ID:            1,
			Filename:      "early.go",
			Summary:       "first",
			Suggestions:   map[string]string{"modularity": "split it"},
			PotentialBugs: map[string]string{},
			Timestamp:     "2024-05-01T12:00:00Z",
		},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()

	newTestRouter(repo, new(mockAI)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.ReviewReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, domain.ReportID(2), got[0].ID)
	assert.Equal(t, "late.go", got[0].Filename)
	assert.Equal(t, domain.ReportID(1), got[1].ID)
	assert.Equal(t, map[string]string{"modularity": "split it"}, got[1].Suggestions)
}

func TestDeleteReview_Succeeds(t *testing.T) {
	repo := new(mockRepo)
	repo.On("DeleteByID", mock.Anything, domain.ReportID(7)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/review/7", nil)
	rec := httptest.NewRecorder()

	newTestRouter(repo, new(mockAI)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Review Report with ID 7 deleted successfully.", resp["message"])
	repo.AssertExpectations(t)
}

func TestDeleteReview_MissingIDIs404(t *testing.T) {
	repo := new(mockRepo)
	repo.On("DeleteByID", mock.Anything, domain.ReportID(9)).Return(domain.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/review/9", nil)
	rec := httptest.NewRecorder()

	newTestRouter(repo, new(mockAI)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Review Report not found", decodeError(t, rec.Body))
}

func TestDeleteReview_NonIntegerIDIs400(t *testing.T) {
	repo := new(mockRepo)

	req := httptest.NewRequest(http.MethodDelete, "/api/review/abc", nil)
	rec := httptest.NewRecorder()

	newTestRouter(repo, new(mockAI)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid report ID: abc", decodeError(t, rec.Body))
	repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestCORSPreflightFromFrontendOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/review", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	newTestRouter(new(mockRepo), new(mockAI)).ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	newTestRouter(new(mockRepo), new(mockAI)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requests_total")
	assert.Contains(t, rec.Body.String(), "reviews_total")
}
