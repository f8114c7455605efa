package preview

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailsmith/internal/dispatch"
	"github.com/hupe1980/mailsmith/internal/output"
)

func newDist(t *testing.T) string {
	t.Helper()

	dist := t.TempDir()
	for _, rel := range []string{"promo-a/welcome.html", "promo-b/sale.html"} {
		path := filepath.Join(dist, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("<html>"+rel+"</html>"), 0o600))
	}

	return dist
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestHandler_Index(t *testing.T) {
	h := New(newDist(t)).Handler()

	t.Run("defaults to first page", func(t *testing.T) {
		rec := get(t, h, "/")
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `<optgroup label="promo-a">`)
		assert.Contains(t, body, `<option value="promo-b/sale.html">`)
		assert.Contains(t, body, `src="/dist/promo-a/welcome.html"`)
		assert.Contains(t, body, `data-campaign="promo-a"`)
		assert.Contains(t, body, `data-init="@get('/_reload')"`)
	})

	t.Run("selects requested page", func(t *testing.T) {
		body := get(t, h, "/?page=promo-b/sale.html").Body.String()
		assert.Contains(t, body, `src="/dist/promo-b/sale.html"`)
		assert.Contains(t, body, `<option value="promo-b/sale.html" selected>`)
	})

	t.Run("unknown page falls back", func(t *testing.T) {
		body := get(t, h, "/?page=nope.html").Body.String()
		assert.Contains(t, body, `src="/dist/promo-a/welcome.html"`)
	})

	t.Run("empty output", func(t *testing.T) {
		body := get(t, New(t.TempDir()).Handler(), "/").Body.String()
		assert.Contains(t, body, "No pages rendered yet.")
	})
}

func TestHandler_Manifest(t *testing.T) {
	rec := get(t, New(newDist(t)).Handler(), "/manifest.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var m output.Manifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, []string{"promo-a/welcome.html", "promo-b/sale.html"}, m.Pages())
}

func TestHandler_Dist(t *testing.T) {
	h := New(newDist(t)).Handler()

	rec := get(t, h, "/dist/promo-b/sale.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>promo-b/sale.html</html>", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, h, "/dist/promo-b/missing.html").Code)
}

func TestReloadStream(t *testing.T) {
	dist := newDist(t)
	s := New(dist)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/_reload", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return s.hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	m, err := output.BuildManifest(dist)
	require.NoError(t, err)

	s.Notify(dispatch.Notification{Campaign: "promo-a", Manifest: m})

	var (
		picker bool
		reload bool
	)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		picker = picker || strings.Contains(line, `id="picker"`)
		reload = reload || strings.Contains(line, `"promo-a"`) && strings.Contains(line, "location.reload()")

		if picker && reload {
			break
		}
	}

	assert.True(t, picker, "picker patched")
	assert.True(t, reload, "reload script sent")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(newDist(t), WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/manifest.json"

	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:gosec,noctx // test
		if err != nil {
			return false
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_BadAddress(t *testing.T) {
	err := New(t.TempDir(), WithAddr("127.0.0.1:-1")).Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
}
