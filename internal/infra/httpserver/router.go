package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appreviews "github.com/yudhapratama/code-review-api/internal/application/reviews"
	domai "github.com/yudhapratama/code-review-api/internal/domain/ai"
	domain "github.com/yudhapratama/code-review-api/internal/domain/reviews"
	"github.com/yudhapratama/code-review-api/internal/middleware"
)

type Router struct {
	reviewsSvc *appreviews.Service
	log        *zap.Logger
}

func NewRouter(reviewsSvc *appreviews.Service, pool *sql.DB, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := &Router{reviewsSvc: reviewsSvc, log: log}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: pool},
	}))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/review", r.wrap(r.handleCreateReview))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Delete("/review/{id}", r.wrap(r.handleDelete))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap translates the error vocabulary of the lower layers into HTTP
// responses. Client mistakes map to 4xx with their own message; everything
// upstream or internal collapses into a generic 500 so no provider output or
// driver detail leaks to the caller.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var invalid *domain.InvalidInputError
		switch {
		case errors.As(err, &invalid):
			writeError(w, http.StatusBadRequest, invalid.Msg)
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Review Report not found")
		case errors.Is(err, domai.ErrMalformedResponse):
			writeError(w, http.StatusInternalServerError, "LLM response was not valid JSON.")
		default:
			r.log.Error("request failed",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error during code review.")
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// POST /api/review
// Multipart form with the source file in field "code_file".
func (r *Router) handleCreateReview(w http.ResponseWriter, req *http.Request) error {
	file, header, err := req.FormFile("code_file")
	if err != nil {
		return domain.NewInvalidInput("No file was uploaded.")
	}
	defer file.Close()

	code, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	middleware.IncrementReviews()
	report, err := r.reviewsSvc.Review(req.Context(), appreviews.ReviewCommand{
		Filename: header.Filename,
		Size:     header.Size,
		Code:     code,
	})
	if err != nil {
		middleware.IncrementReviewsFailed()
		if errors.Is(err, domai.ErrQuotaExceeded) {
			middleware.IncrementReviewsQuotaExceeded()
		}
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(report)
}

// GET /api/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	list, err := r.reviewsSvc.History(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		// an empty history is an empty array, never null
		list = []*domain.ReviewReport{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// DELETE /api/review/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return domain.NewInvalidInput(fmt.Sprintf("Invalid report ID: %s", raw))
	}

	if err := r.reviewsSvc.Delete(req.Context(), domain.ReportID(id)); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("Review Report with ID %d deleted successfully.", id),
	})
}
