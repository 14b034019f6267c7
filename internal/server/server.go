package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"parish_feeds/internal/feeds"
	"parish_feeds/internal/logger"
	"parish_feeds/internal/metrics"
	"parish_feeds/internal/models"

	"github.com/go-chi/chi/v5"
)

// FeedGetter загружает ленту по типу и параметрам.
type FeedGetter interface {
	Get(ctx context.Context, kind feeds.Kind, p feeds.Params, cb models.Callback, args any) models.Result
}

// Archive — хранилище истории загрузок.
type Archive interface {
	LastFetches(ctx context.Context, feed string, limit int) ([]models.FetchRecord, error)
	Ping(ctx context.Context) error
}

// Server хранит зависимости HTTP-обработчиков.
type Server struct {
	feeds   FeedGetter
	metrics *metrics.Metrics
	archive Archive
	router  chi.Router
}

// NewServer создаёт Server. archive может быть nil, если архив отключён.
func NewServer(f FeedGetter, m *metrics.Metrics, archive Archive) *Server {
	s := &Server{feeds: f, metrics: m, archive: archive, router: chi.NewRouter()}

	s.router.Use(RequestIDMiddleware, LoggingMiddleware)
	s.router.Get("/health", s.HealthCheck)
	s.router.Get("/api/feeds/{kind}", s.GetFeed)
	s.router.Get("/api/feeds/{kind}/history", s.GetHistory)
	if m != nil {
		s.router.Handle("/metrics", m.Handler())
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HealthCheck отвечает 200 OK; при включённом архиве проверяет доступность БД.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.archive != nil {
		if err := s.archive.Ping(r.Context()); err != nil {
			http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("OK"))
}

// GetFeed отдаёт XML ленты {kind}. Параметры: format, count, days, caching.
// При ошибке загрузки отвечает 502 с текстом ошибки.
func (s *Server) GetFeed(w http.ResponseWriter, r *http.Request) {
	kind, err := feeds.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	p, err := parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := s.feeds.Get(r.Context(), kind, p, nil, nil)
	if !res.OK() {
		logger.Log.WithField("feed", kind).WithField("request_id", RequestID(r.Context())).
			Warnf("Feed unavailable: %v", res.Err)
		http.Error(w, res.Message(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(res.Doc.Raw)
}

// GetHistory возвращает JSON-массив последних загрузок ленты без тел ответов.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	kind, err := feeds.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	recs, err := s.archive.LastFetches(r.Context(), string(kind), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	history := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		history = append(history, map[string]interface{}{
			"url":        rec.URL,
			"status":     rec.StatusCode,
			"ok":         rec.OK,
			"message":    rec.Message,
			"fetched_at": rec.FetchedAt.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(history); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func parseParams(r *http.Request) (feeds.Params, error) {
	q := r.URL.Query()
	p := feeds.Params{Format: q.Get("format")}

	var err error
	if v := q.Get("count"); v != "" {
		if p.Count, err = strconv.Atoi(v); err != nil {
			return p, err
		}
	}
	if v := q.Get("days"); v != "" {
		if p.Days, err = strconv.Atoi(v); err != nil {
			return p, err
		}
	}
	if v := q.Get("caching"); v != "" {
		if p.Caching, err = strconv.ParseBool(v); err != nil {
			return p, err
		}
	}
	return p, nil
}
