package poller

import (
	"context"
	"time"

	"parish_feeds/internal/feeds"
	"parish_feeds/internal/logger"
	"parish_feeds/internal/models"

	"github.com/sirupsen/logrus"
)

// AsyncGetter запускает загрузку ленты и возвращает канал с результатом.
type AsyncGetter interface {
	GetAsync(ctx context.Context, kind feeds.Kind, p feeds.Params, cb models.Callback, args any) <-chan models.Result
}

// StartPolling загружает все ленты сразу и затем каждые interval, пока ctx не отменён.
func StartPolling(ctx context.Context, getter AsyncGetter, interval time.Duration) {
	log := logger.Log.WithFields(map[string]interface{}{
		"service":  "poller",
		"interval": interval.String(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		log.Info("Starting new polling cycle")
		results := PollOnce(ctx, getter)

		failed := 0
		for _, res := range results {
			if !res.OK() {
				failed++
			}
		}
		log.WithField("failed", failed).Infof("Polled %d feeds", len(results))

		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Info("Stopping poller by context")
			return
		}
	}
}

// PollOnce параллельно загружает все ленты с параметрами по умолчанию
// и дожидается всех результатов.
func PollOnce(ctx context.Context, getter AsyncGetter) map[feeds.Kind]models.Result {
	pending := make(map[feeds.Kind]<-chan models.Result, len(feeds.Kinds))
	for _, kind := range feeds.Kinds {
		pending[kind] = getter.GetAsync(ctx, kind, feeds.Params{}, nil, nil)
	}

	results := make(map[feeds.Kind]models.Result, len(pending))
	for kind, ch := range pending {
		res := <-ch
		results[kind] = res

		entry := logger.Log.WithField("feed", kind)
		if !res.OK() {
			entry.Warnf("Failed to poll feed: %v", res.Err)
			continue
		}
		logPolled(entry, kind, res.Doc)
	}
	return results
}

// logPolled пишет размер ответа и, для RSS/Atom-лент, число записей.
// Расписание служб — собственная схема, его как ленту не разбираем.
func logPolled(entry *logrus.Entry, kind feeds.Kind, doc *models.Document) {
	entry = entry.WithField("bytes", len(doc.Raw))
	if kind == feeds.KindServiceTimes {
		entry.Info("Feed polled")
		return
	}

	feed, err := doc.Feed()
	if err != nil {
		entry.Warnf("Failed to read feed items: %v", err)
		return
	}
	entry.WithFields(logrus.Fields{
		"title":       feed.Title,
		"items_count": len(feed.Items),
	}).Info("Feed polled")
}
