package feeds

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"parish_feeds/internal/config"
	"parish_feeds/internal/models"

	"github.com/pkg/errors"
)

// Kind — тип удалённой ленты.
type Kind string

const (
	KindNews         Kind = "news"
	KindBlog         Kind = "blog"
	KindSocial       Kind = "social"
	KindPage         Kind = "page"
	KindCalendar     Kind = "calendar"
	KindServiceTimes Kind = "servicetimes"
)

// Kinds перечисляет все ленты в порядке объявления.
var Kinds = []Kind{KindNews, KindBlog, KindSocial, KindPage, KindCalendar, KindServiceTimes}

var (
	ErrUnknownKind = errors.New("unknown feed")
	ErrNoData      = errors.New("Can't load data")
)

// ParseKind возвращает Kind по имени ленты.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.Wrap(ErrUnknownKind, name)
}

// Params — параметры запроса ленты. Каждая лента читает только свои поля.
type Params struct {
	Format  string
	Count   int
	Days    int
	Caching bool
}

// Fetcher выполняет запрос и возвращает разобранный документ.
type Fetcher interface {
	Fetch(ctx context.Context, req models.Request) models.Result
}

// Client строит адреса лент и передаёт запросы в Fetcher.
type Client struct {
	fetcher   Fetcher
	endpoints config.Endpoints
	now       func() time.Time
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithClock подменяет источник времени для cache-buster.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient создаёт Client поверх fetcher с адресами из ep.
func NewClient(f Fetcher, ep config.Endpoints, opts ...ClientOption) *Client {
	ep.SiteBase = strings.TrimRight(ep.SiteBase, "/")
	ep.BlogBase = strings.TrimRight(ep.BlogBase, "/")
	ep.SocialBase = strings.TrimRight(ep.SocialBase, "/")
	ep.PageBase = strings.TrimRight(ep.PageBase, "/")
	ep.CalendarBase = strings.TrimRight(ep.CalendarBase, "/")

	c := &Client{fetcher: f, endpoints: ep, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) NewsURL(format string) string {
	return c.endpoints.SiteBase + "/?feed=" + NewsFormat(format)
}

func (c *Client) BlogURL(format string) string {
	return c.endpoints.BlogBase + "/feeds/posts/default?alt=" + BlogFormat(format)
}

func (c *Client) SocialURL(format string, count int) string {
	return c.endpoints.SocialBase + "/statuses/user_timeline." + SocialFormat(format) +
		"?include_rts=true&screen_name=" + url.QueryEscape(c.endpoints.SocialScreenName) +
		"&count=" + strconv.Itoa(SocialCount(count))
}

func (c *Client) PageURL() string {
	return c.endpoints.PageBase + "/feeds/page.php?id=" + url.QueryEscape(c.endpoints.PageID) + "&format=atom10"
}

func (c *Client) CalendarURL(days int) string {
	return c.endpoints.CalendarBase + "/Calendar/RSS.ashx?days=" + strconv.Itoa(CalendarDays(days)) +
		"&ci=" + url.QueryEscape(c.endpoints.CalendarID) + "&igd="
}

// ServiceTimesURL без кеширования добавляет "?" и cache-buster из текущего времени.
func (c *Client) ServiceTimesURL(caching bool) string {
	u := c.endpoints.SiteBase + c.endpoints.ServiceTimesPath
	if !caching {
		u += "?" + CacheBuster(c.now())
	}
	return u
}

// URL строит адрес ленты kind с параметрами p.
func (c *Client) URL(kind Kind, p Params) (string, error) {
	switch kind {
	case KindNews:
		return c.NewsURL(p.Format), nil
	case KindBlog:
		return c.BlogURL(p.Format), nil
	case KindSocial:
		return c.SocialURL(p.Format, p.Count), nil
	case KindPage:
		return c.PageURL(), nil
	case KindCalendar:
		return c.CalendarURL(p.Days), nil
	case KindServiceTimes:
		return c.ServiceTimesURL(p.Caching), nil
	}
	return "", errors.Wrap(ErrUnknownKind, string(kind))
}

// News загружает новости сайта в формате rss, rss2 или atom (по умолчанию rss2).
func (c *Client) News(ctx context.Context, format string, cb models.Callback, args any) models.Result {
	return c.do(ctx, KindNews, c.NewsURL(format), cb, args)
}

// Blog загружает ленту блога в формате rss или atom.
func (c *Client) Blog(ctx context.Context, format string, cb models.Callback, args any) models.Result {
	return c.do(ctx, KindBlog, c.BlogURL(format), cb, args)
}

// Social загружает count последних записей ленты соцсети (по умолчанию 8).
func (c *Client) Social(ctx context.Context, format string, count int, cb models.Callback, args any) models.Result {
	return c.do(ctx, KindSocial, c.SocialURL(format, count), cb, args)
}

// Page загружает atom-ленту страницы.
func (c *Client) Page(ctx context.Context, cb models.Callback, args any) models.Result {
	return c.do(ctx, KindPage, c.PageURL(), cb, args)
}

// Calendar загружает события календаря на days дней вперёд (по умолчанию 14).
func (c *Client) Calendar(ctx context.Context, days int, cb models.Callback, args any) models.Result {
	return c.do(ctx, KindCalendar, c.CalendarURL(days), cb, args)
}

// ServiceTimes загружает расписание служб.
func (c *Client) ServiceTimes(ctx context.Context, caching bool, cb models.Callback, args any) models.Result {
	return c.do(ctx, KindServiceTimes, c.ServiceTimesURL(caching), cb, args)
}

// Get загружает ленту kind.
func (c *Client) Get(ctx context.Context, kind Kind, p Params, cb models.Callback, args any) models.Result {
	u, err := c.URL(kind, p)
	if err != nil {
		return models.Result{Err: err}
	}
	return c.do(ctx, kind, u, cb, args)
}

// GetAsync выполняет Get в отдельной горутине. Канал получает один результат и закрывается.
func (c *Client) GetAsync(ctx context.Context, kind Kind, p Params, cb models.Callback, args any) <-chan models.Result {
	ch := make(chan models.Result, 1)
	go func() {
		defer close(ch)
		ch <- c.Get(ctx, kind, p, cb, args)
	}()
	return ch
}

func (c *Client) do(ctx context.Context, kind Kind, u string, cb models.Callback, args any) models.Result {
	res := c.fetcher.Fetch(ctx, models.Request{
		Feed:     string(kind),
		URL:      u,
		Callback: cb,
		Args:     args,
	})
	if res.Err == nil && res.Doc == nil {
		res.Err = ErrNoData
	}
	return res
}
