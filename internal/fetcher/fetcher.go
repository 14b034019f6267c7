package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"parish_feeds/internal/logger"
	"parish_feeds/internal/metrics"
	"parish_feeds/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 10 * 1024 * 1024
)

// ErrDownload — ошибка любого ответа, кроме 200. Текст фиксирован.
var ErrDownload = errors.New("Couldn't download the feed.")

// StatusError описывает ответ с кодом, отличным от 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return ErrDownload.Error()
}

// Is позволяет проверять ошибку через errors.Is(err, ErrDownload).
func (e *StatusError) Is(target error) bool {
	return target == ErrDownload
}

// Recorder сохраняет записи о загрузках.
type Recorder interface {
	SaveFetch(ctx context.Context, rec models.FetchRecord) error
}

// Fetcher выполняет GET-запросы лент и разбирает ответ как XML.
// Состояние запроса локально для каждого вызова, поэтому Fetcher безопасен
// для конкурентного использования.
type Fetcher struct {
	client    *http.Client
	userAgent string
	metrics   *metrics.Metrics
	recorder  Recorder
}

// Option настраивает Fetcher.
type Option func(*Fetcher)

// WithClient задаёт HTTP-клиент.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout задаёт таймаут клиента по умолчанию.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent задаёт заголовок User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithMetrics включает учёт загрузок в Prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithRecorder включает архивирование загрузок.
func WithRecorder(r Recorder) Option {
	return func(f *Fetcher) { f.recorder = r }
}

// New создаёт Fetcher с таймаутом 10 секунд, если не задано иное.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{client: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch загружает req.URL и возвращает документ или ошибку.
// Callback вызывается ровно один раз и только при успешном разборе ответа с кодом 200.
func (f *Fetcher) Fetch(ctx context.Context, req models.Request) models.Result {
	log := logger.Log.WithFields(logrus.Fields{
		"feed": req.Feed,
		"url":  req.URL,
	})
	log.Debug("Fetching feed")

	start := time.Now()
	rec := models.FetchRecord{Feed: req.Feed, URL: req.URL, FetchedAt: start}

	res, outcome := f.fetch(ctx, req.URL, &rec)
	f.metrics.Observe(req.Feed, outcome, time.Since(start))

	rec.OK = res.OK()
	rec.Message = res.Message()
	if f.recorder != nil {
		if err := f.recorder.SaveFetch(ctx, rec); err != nil {
			log.Warnf("Failed to record fetch: %v", err)
		}
	}

	if !res.OK() {
		log.WithField("status", rec.StatusCode).Warnf("Fetch failed: %v", res.Err)
		return res
	}

	log.Debug("Feed fetched")
	if req.Callback != nil {
		req.Callback(req.Args, res.Doc)
	}
	return res
}

// FetchAsync выполняет Fetch в отдельной горутине. Канал получает ровно один
// результат и закрывается. Callback вызывается из этой горутины.
func (f *Fetcher) FetchAsync(ctx context.Context, req models.Request) <-chan models.Result {
	ch := make(chan models.Result, 1)
	go func() {
		defer close(ch)
		ch <- f.Fetch(ctx, req)
	}()
	return ch
}

func (f *Fetcher) fetch(ctx context.Context, url string, rec *models.FetchRecord) (models.Result, string) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Result{Err: errors.Wrap(err, "create request")}, metrics.OutcomeTransport
	}
	httpReq.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return models.Result{Err: errors.Wrap(err, "fetch feed")}, metrics.OutcomeTransport
	}
	defer resp.Body.Close()

	rec.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		return models.Result{Err: &StatusError{URL: url, StatusCode: resp.StatusCode}}, metrics.OutcomeBadStatus
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return models.Result{Err: errors.Wrap(err, "read body")}, metrics.OutcomeTransport
	}
	rec.Body = body

	doc, err := models.ParseDocument(url, body)
	if err != nil {
		return models.Result{Err: errors.Wrap(err, "parse feed")}, metrics.OutcomeParseError
	}
	return models.Result{Doc: doc}, metrics.OutcomeOK
}
