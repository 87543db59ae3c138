package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mariamochka1994/bday-bot/internal/config"
	"github.com/Mariamochka1994/bday-bot/internal/metrics"
)

// -----------------------------------------------------------------------------
// Handler Tests
// -----------------------------------------------------------------------------

func get(t *testing.T, h http.Handler, path string, header http.Header) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandler_ServingContent(t *testing.T) {
	srv := New("", nil)
	expectedICS := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR")
	srv.Update(expectedICS)

	resp := get(t, srv.Handler(), config.RouteCalendar, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, expectedICS, body)
}

func TestHandler_Caching(t *testing.T) {
	srv := New("", nil)
	srv.Update([]byte("DATA_VERSION_1"))
	h := srv.Handler()

	first := get(t, h, config.RouteCalendar, nil)
	etag := first.Header.Get(config.HeaderETag)
	lastMod := first.Header.Get(config.HeaderLastModified)
	require.NotEmpty(t, etag, "Server must provide an ETag")

	byETag := get(t, h, config.RouteCalendar, http.Header{config.HeaderIfNoneMatch: {etag}})
	assert.Equal(t, http.StatusNotModified, byETag.StatusCode)
	body, _ := io.ReadAll(byETag.Body)
	assert.Empty(t, body, "Body must be empty on 304 Not Modified")

	byDate := get(t, h, config.RouteCalendar, http.Header{config.HeaderIfModifiedSince: {lastMod}})
	assert.Equal(t, http.StatusNotModified, byDate.StatusCode)
}

func TestUpdate_SameContentKeepsLastModified(t *testing.T) {
	srv := New("", nil)
	srv.Update([]byte("A"))
	first := srv.cache.Load()

	srv.Update([]byte("A"))
	assert.Same(t, first, srv.cache.Load())

	srv.Update([]byte("B"))
	assert.NotEqual(t, first.etag, srv.cache.Load().etag)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := New("", nil)

	req := httptest.NewRequest(http.MethodPost, config.RouteCalendar, nil)
	w := httptest.NewRecorder()
	srv.handleCalendarRequest(w, req)

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, config.AllowedMethods, resp.Header.Get(config.HeaderAllow))
}

func TestHandler_Initializing(t *testing.T) {
	resp := get(t, New("", nil).Handler(), config.RouteCalendar, nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
}

func TestHandler_HealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordCommand(config.CmdWhoAmI)
	h := New("", metrics.Handler(reg)).Handler()

	health := get(t, h, config.RouteHealth, nil)
	assert.Equal(t, http.StatusOK, health.StatusCode)
	body, _ := io.ReadAll(health.Body)
	assert.Equal(t, config.HTTPMsgOK, string(body))

	m := get(t, h, config.RouteMetrics, nil)
	assert.Equal(t, http.StatusOK, m.StatusCode)
	body, _ = io.ReadAll(m.Body)
	assert.Contains(t, string(body), `bdaybot_commands_total{command="whoami"} 1`)
}

func TestHandler_NoMetricsRoute(t *testing.T) {
	resp := get(t, New("", nil).Handler(), config.RouteMetrics, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// -----------------------------------------------------------------------------
// Concurrency Tests
// -----------------------------------------------------------------------------

// TestServer_RaceCondition runs writers and readers concurrently. Run with -race.
func TestServer_RaceCondition(t *testing.T) {
	srv := New("", nil)
	var wg sync.WaitGroup
	end := time.Now().Add(300 * time.Millisecond)

	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; time.Now().Before(end); i++ {
				srv.Update([]byte(fmt.Sprintf("VERSION:%d-%d", id, i)))
				time.Sleep(time.Microsecond)
			}
		}(w)
	}

	for r := 0; r < 20; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				srv.handleCalendarRequest(w, httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil))

				if w.Code != http.StatusOK && w.Code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", w.Code)
				}
			}
		}()
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

func TestServer_Lifecycle(t *testing.T) {
	const addr = "127.0.0.1:18099"

	srv := New(addr, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Start(ctx)
	}()

	url := "http://" + addr + config.RouteCalendar

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Update([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR"))

	resp, err = http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_ListenRequired(t *testing.T) {
	err := New("", nil).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrListenRequired)
}
