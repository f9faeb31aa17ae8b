package faq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppg/ppgchat/internal/chat"
	"github.com/ppg/ppgchat/internal/locale"
	"github.com/ppg/ppgchat/internal/ui"
)

var en = locale.New("en")

const feed = `{"faq":[
	{"q":"How do I pay?","a":"Use *QR* payment.\nOr card.","tag":"payment"},
	{"q":"Opening hours","a":"9:00 to 18:00 daily"},
	{"q":"Shipping time","a":"Two days","tag":"DELIVERY"}
]}`

type feedServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newFeedServer(t *testing.T, status int, contentType, body string) *feedServer {
	t.Helper()
	fs := &feedServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		if r.URL.Path != "/api/public_faq" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newPanel(srv *httptest.Server, mods ...func(*Options)) *Panel {
	opts := Options{HTTP: srv.Client(), BaseURL: srv.URL + "/", Printer: en}
	for _, mod := range mods {
		mod(&opts)
	}
	return New(opts)
}

func TestLoad_ReadsPublicFeed(t *testing.T) {
	srv := newFeedServer(t, 200, "application/json", feed)
	p := newPanel(srv.Server)

	got := p.Load(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, Entry{Q: "How do I pay?", A: "Use *QR* payment.\nOr card.", Tag: "payment"}, got[0])
	assert.Equal(t, "Shipping time", got[2].Q)
	assert.Equal(t, StatusReady, p.Status())
}

func TestLoad_FailuresLeaveCacheEmpty(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
	}{
		{"server error", 500, "application/json", `{"error":"down"}`},
		{"html page", 200, "text/html", "<html><title>Not here</title></html>"},
		{"not found", 404, "text/plain", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFeedServer(t, tt.status, tt.contentType, tt.body)
			p := newPanel(srv.Server)

			assert.Nil(t, p.Load(context.Background()))
			assert.Empty(t, p.Entries())
			assert.Equal(t, StatusFailed, p.Status())
			assert.Contains(t, p.View().ByID("faq-list").TextContent(), en.T(locale.FAQLoadFailed))
		})
	}
}

func TestLoad_FailureAfterSuccessClearsCache(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail.Load() {
			w.WriteHeader(503)
			return
		}
		w.Write([]byte(feed))
	}))
	defer srv.Close()
	p := newPanel(srv)

	require.Len(t, p.Load(context.Background()), 3)
	fail.Store(true)
	assert.Empty(t, p.Refresh(context.Background()))
	assert.Empty(t, p.Entries())
}

func TestLoad_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := New(Options{BaseURL: url, Printer: en})
	assert.Nil(t, p.Load(context.Background()))
	assert.Equal(t, StatusFailed, p.Status())
}

func TestFilter(t *testing.T) {
	srv := newFeedServer(t, 200, "application/json", feed)
	p := newPanel(srv.Server)
	p.Load(context.Background())
	hits := srv.hits.Load()

	assert.Len(t, p.Filter(""), 3)
	assert.Len(t, p.Filter("   "), 3)

	got := p.Filter("qr")
	require.Len(t, got, 1)
	assert.Equal(t, "How do I pay?", got[0].Q)

	got = p.Filter("OPENING")
	require.Len(t, got, 1)
	assert.Equal(t, "Opening hours", got[0].Q)

	got = p.Filter("delivery")
	require.Len(t, got, 1)
	assert.Equal(t, "Shipping time", got[0].Q)

	assert.Empty(t, p.Filter("refund"))
	assert.Equal(t, hits, srv.hits.Load(), "filtering must not fetch")
}

func TestFilterTag(t *testing.T) {
	srv := newFeedServer(t, 200, "application/json", feed)
	p := newPanel(srv.Server)
	p.Load(context.Background())

	got := p.FilterTag("Payment")
	require.Len(t, got, 1)
	assert.Equal(t, "payment", got[0].Tag)
}

func TestOpen_LoadsOnFirstOpenOnly(t *testing.T) {
	srv := newFeedServer(t, 200, "application/json", feed)
	p := newPanel(srv.Server)

	p.Open(context.Background())
	assert.True(t, p.IsOpen())
	p.Close()
	assert.False(t, p.IsOpen())
	p.Open(context.Background())

	assert.Equal(t, int32(1), srv.hits.Load())
	assert.Len(t, p.Entries(), 3)

	p.Refresh(context.Background())
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestOpen_RetriesAfterFailedLoad(t *testing.T) {
	srv := newFeedServer(t, 500, "application/json", `{}`)
	p := newPanel(srv.Server)

	p.Open(context.Background())
	p.Open(context.Background())
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestOpen_ConcurrentOpensShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feed))
	}))
	defer srv.Close()
	p := newPanel(srv)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Open(context.Background())
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	assert.Len(t, p.Entries(), 3)
}

type recordingChat struct {
	mu    sync.Mutex
	input string
	sent  []string
}

func (r *recordingChat) SetInput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = text
}

func (r *recordingChat) Send(_ context.Context, text string) chat.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return chat.OutcomeSuccess
}

func TestSelect_PopulatesInputWithoutSending(t *testing.T) {
	srv := newFeedServer(t, 200, "application/json", feed)
	rc := &recordingChat{}
	p := newPanel(srv.Server, func(o *Options) { o.Input = rc; o.Sender = rc })
	p.Open(context.Background())

	p.Select(p.Entries()[1])

	assert.Equal(t, "Opening hours", rc.input)
	assert.Empty(t, rc.sent)
	assert.False(t, p.IsOpen())
}

func TestAsk(t *testing.T) {
	srv := newFeedServer(t, 200, "application/json", feed)

	t.Run("auto send", func(t *testing.T) {
		rc := &recordingChat{}
		p := newPanel(srv.Server, func(o *Options) { o.Input = rc; o.Sender = rc; o.AutoSend = true })
		p.Open(context.Background())

		assert.Equal(t, chat.OutcomeSuccess, p.Ask(context.Background(), p.Entries()[0]))
		assert.Equal(t, []string{"How do I pay?"}, rc.sent)
		assert.False(t, p.IsOpen())
	})

	t.Run("manual", func(t *testing.T) {
		rc := &recordingChat{}
		p := newPanel(srv.Server, func(o *Options) { o.Input = rc; o.Sender = rc })
		p.Open(context.Background())

		assert.Equal(t, chat.OutcomeSkipped, p.Ask(context.Background(), p.Entries()[0]))
		assert.Empty(t, rc.sent)
		assert.Equal(t, "How do I pay?", rc.input)
	})
}

func TestRender(t *testing.T) {
	p := New(Options{Printer: en})

	empty := p.Render(nil)
	assert.Empty(t, empty.ByClass("faq-item"))
	assert.Equal(t, en.T(locale.FAQEmpty), empty.TextContent())

	list := p.Render([]Entry{
		{ID: "1", Q: "<b>bold?</b>", A: "line one\nline two <script>alert(1)</script>"},
	})
	items := list.ByClass("faq-item")
	require.Len(t, items, 1)
	assert.False(t, items[0].HasClass("open"))

	html := ui.HTML(list)
	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b>")
	assert.Contains(t, html, "&lt;b&gt;bold?&lt;/b&gt;")
	assert.Contains(t, html, "<br")

	p.Toggle("1")
	assert.True(t, p.Render([]Entry{{ID: "1", Q: "x", A: "y"}}).ByClass("faq-item")[0].HasClass("open"))
	p.Toggle("1")
	assert.False(t, p.Render([]Entry{{ID: "1", Q: "x", A: "y"}}).ByClass("faq-item")[0].HasClass("open"))
}

func TestView_AppliesQueryAndTag(t *testing.T) {
	srv := newFeedServer(t, 200, "application/json", feed)
	p := newPanel(srv.Server)
	p.Open(context.Background())

	v := p.View()
	assert.True(t, v.HasClass("open"))
	assert.Len(t, v.ByClass("faq-item"), 3)

	p.SetQuery("hours")
	v = p.View()
	assert.Len(t, v.ByClass("faq-item"), 1)
	assert.Equal(t, "hours", v.ByID("faqSearch").Get("value"))

	p.SetQuery("")
	p.SetTag("payment")
	assert.Len(t, p.View().ByClass("faq-item"), 1)

	p.SetQuery("nothing like this")
	assert.Contains(t, p.View().ByID("faq-list").TextContent(), en.T(locale.FAQEmpty))
}
