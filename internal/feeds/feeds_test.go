package feeds_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"parish_feeds/internal/config"
	"parish_feeds/internal/feeds"
	"parish_feeds/internal/fetcher"
	"parish_feeds/internal/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 10, 15, 42, 0, time.UTC)

type stubFetcher struct {
	requests []models.Request
	result   models.Result
}

func (s *stubFetcher) Fetch(_ context.Context, req models.Request) models.Result {
	s.requests = append(s.requests, req)
	return s.result
}

func (s *stubFetcher) lastURL() string {
	return s.requests[len(s.requests)-1].URL
}

func newStubClient() (*feeds.Client, *stubFetcher) {
	stub := &stubFetcher{result: models.Result{Doc: &models.Document{}}}
	return feeds.NewClient(stub, config.Default().Endpoints, feeds.WithClock(func() time.Time { return fixedNow })), stub
}

func TestURLs(t *testing.T) {
	c, _ := newStubClient()

	require.Equal(t, "http://www.trinityeaston.org/?feed=rss2", c.NewsURL("invalid-format"))
	require.Equal(t, "http://www.trinityeaston.org/?feed=atom", c.NewsURL("atom"))
	require.Equal(t, "http://trinityeaston.blogspot.com/feeds/posts/default?alt=rss", c.BlogURL("rss2"))
	require.Equal(t, "http://trinityeaston.blogspot.com/feeds/posts/default?alt=atom", c.BlogURL(""))
	require.Equal(t,
		"http://api.twitter.com/1/statuses/user_timeline.rss?include_rts=true&screen_name=trinityeastonpa&count=8",
		c.SocialURL("foo", 0))
	require.Equal(t,
		"http://api.twitter.com/1/statuses/user_timeline.xml?include_rts=true&screen_name=trinityeastonpa&count=9999",
		c.SocialURL("xml", 9999))
	require.Equal(t, "http://www.facebook.com/feeds/page.php?id=99634166137&format=atom10", c.PageURL())
	require.Equal(t, "http://www.mychurchevents.com/Calendar/RSS.ashx?days=14&ci=L6M7G1G1L6H2G1G1&igd=", c.CalendarURL(0))
	require.Equal(t, "http://www.mychurchevents.com/Calendar/RSS.ashx?days=9999&ci=L6M7G1G1L6H2G1G1&igd=", c.CalendarURL(9999))
	require.Equal(t, "http://www.trinityeaston.org/trinjal/data/servicetimes.xml?101542", c.ServiceTimesURL(false))
	require.Equal(t, "http://www.trinityeaston.org/trinjal/data/servicetimes.xml", c.ServiceTimesURL(true))
}

func TestURLs_TrailingSlash(t *testing.T) {
	ep := config.Default().Endpoints
	ep.SiteBase = "https://example.org/"
	c := feeds.NewClient(&stubFetcher{}, ep)

	require.Equal(t, "https://example.org/?feed=rss", c.NewsURL("rss"))
	require.Equal(t, "https://example.org/trinjal/data/servicetimes.xml", c.ServiceTimesURL(true))
}

func TestOperations(t *testing.T) {
	c, stub := newStubClient()
	ctx := context.Background()
	cacheBusted := regexp.MustCompile(`\?\d+$`)

	c.News(ctx, "invalid-format", nil, nil)
	require.Contains(t, stub.lastURL(), "feed=rss2")
	require.Equal(t, "news", stub.requests[0].Feed)

	c.Social(ctx, "", 0, nil, nil)
	require.Contains(t, stub.lastURL(), "count=8")
	require.Contains(t, stub.lastURL(), "user_timeline.rss")

	c.ServiceTimes(ctx, true, nil, nil)
	require.NotRegexp(t, cacheBusted, stub.lastURL())

	c.ServiceTimes(ctx, false, nil, nil)
	require.Regexp(t, cacheBusted, stub.lastURL())

	c.Calendar(ctx, 30, nil, nil)
	require.Contains(t, stub.lastURL(), "days=30")

	c.Blog(ctx, "rss2", nil, nil)
	require.Contains(t, stub.lastURL(), "alt=rss")

	c.Page(ctx, nil, nil)
	require.True(t, strings.HasSuffix(stub.lastURL(), "format=atom10"))
}

func TestOperations_PassCallbackAndArgs(t *testing.T) {
	c, stub := newStubClient()
	cb := func(any, *models.Document) {}

	c.Calendar(context.Background(), 7, cb, "args")
	require.Len(t, stub.requests, 1)
	require.NotNil(t, stub.requests[0].Callback)
	require.Equal(t, "args", stub.requests[0].Args)
}

func TestGet(t *testing.T) {
	c, stub := newStubClient()

	res := c.Get(context.Background(), feeds.KindSocial, feeds.Params{Format: "xml", Count: 25}, nil, nil)
	require.True(t, res.OK())
	require.Contains(t, stub.lastURL(), "user_timeline.xml")
	require.Contains(t, stub.lastURL(), "count=25")

	res = c.Get(context.Background(), feeds.Kind("weather"), feeds.Params{}, nil, nil)
	require.False(t, res.OK())
	require.True(t, errors.Is(res.Err, feeds.ErrUnknownKind))
	require.Len(t, stub.requests, 1)
}

func TestGet_EmptyResult(t *testing.T) {
	stub := &stubFetcher{}
	c := feeds.NewClient(stub, config.Default().Endpoints)

	res := c.News(context.Background(), "rss", nil, nil)
	require.False(t, res.OK())
	require.Equal(t, feeds.ErrNoData, res.Err)
}

func TestParseKind(t *testing.T) {
	for _, k := range feeds.Kinds {
		got, err := feeds.ParseKind(string(k))
		require.NoError(t, err)
		require.Equal(t, k, got)
	}

	got, err := feeds.ParseKind(" News ")
	require.NoError(t, err)
	require.Equal(t, feeds.KindNews, got)

	_, err = feeds.ParseKind("weather")
	require.True(t, errors.Is(err, feeds.ErrUnknownKind))
}

type pathLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *pathLog) add(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, p)
}

func (l *pathLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

func newEndToEndClient(t *testing.T, status int) (*feeds.Client, *pathLog) {
	t.Helper()
	paths := &pathLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths.add(r.URL.RequestURI())
		w.WriteHeader(status)
		w.Write([]byte(`<rss version="2.0"><channel><title>Parish</title></channel></rss>`))
	}))
	t.Cleanup(server.Close)

	ep := config.Default().Endpoints
	ep.SiteBase = server.URL
	ep.BlogBase = server.URL
	ep.SocialBase = server.URL
	ep.PageBase = server.URL
	ep.CalendarBase = server.URL
	return feeds.NewClient(fetcher.New(), ep), paths
}

func TestEndToEnd_Success(t *testing.T) {
	c, paths := newEndToEndClient(t, http.StatusOK)

	var got []any
	cb := func(args any, doc *models.Document) {
		got = append(got, args)
		require.Equal(t, "Parish", doc.Find("title").Text())
	}

	res := c.News(context.Background(), "atom", cb, "news-args")
	require.True(t, res.OK())
	require.Equal(t, "rss", res.Doc.Root.XMLName.Local)
	require.Equal(t, []any{"news-args"}, got)
	require.Equal(t, []string{"/?feed=atom"}, paths.all())

	res = c.Calendar(context.Background(), 30, nil, nil)
	require.True(t, res.OK())
	require.Equal(t, "/Calendar/RSS.ashx?days=30&ci=L6M7G1G1L6H2G1G1&igd=", paths.all()[1])
}

func TestEndToEnd_NotFound(t *testing.T) {
	c, _ := newEndToEndClient(t, http.StatusNotFound)
	called := false
	cb := func(any, *models.Document) { called = true }

	for _, kind := range feeds.Kinds {
		res := c.Get(context.Background(), kind, feeds.Params{}, cb, nil)
		require.False(t, res.OK(), "feed %s", kind)
		require.Equal(t, "Couldn't download the feed.", res.Message())
		require.True(t, errors.Is(res.Err, fetcher.ErrDownload))
	}
	require.False(t, called)
}

func TestGetAsync(t *testing.T) {
	c, _ := newEndToEndClient(t, http.StatusOK)

	done := make(chan any, 1)
	ch := c.GetAsync(context.Background(), feeds.KindServiceTimes, feeds.Params{}, func(args any, _ *models.Document) {
		done <- args
	}, 7)

	select {
	case res := <-ch:
		require.True(t, res.OK())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	require.Equal(t, 7, <-done)
}
