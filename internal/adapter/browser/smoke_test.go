//go:build browser

package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Smoke tests drive a real Chromium. Run with:
//
//	go test -tags browser ./internal/adapter/browser/...
//
// BROWSER_BIN may point at a local Chromium; otherwise one is downloaded.

const placePage = `<!doctype html>
<html><body>
<form id="consent"><input type="button" value="Tout refuser" onclick="document.getElementById('consent').remove(); document.body.dataset.consent='refused'"></form>
<div class="dpoVLd" aria-label="Taux de fréquentation de 35 % à 18 h."></div>
<div class="dpoVLd" aria-label="Taux de fréquentation actuel de 42 % (17 % en général)."></div>
<div class="dpoVLd"></div>
</body></html>`

func launchTestBrowser(t *testing.T, ctx context.Context) domain.Browser {
	t.Helper()
	b, err := NewLauncher(slog.Default()).Launch(ctx, domain.LaunchOptions{
		Headless:     true,
		Locale:       "fr-FR",
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		ExtraHeaders: map[string]string{"Accept-Language": "fr-FR,fr"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSmoke_ConsentAndLabels(t *testing.T) {
	var (
		mu       sync.Mutex
		gotLang  string
		gotAgent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotLang = r.Header.Get("Accept-Language")
		gotAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, placePage)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b := launchTestBrowser(t, ctx)
	page, err := b.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Goto(ctx, srv.URL))

	clicked, err := page.ClickIfPresent(ctx, `input[value="Tout refuser"]`, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, clicked)

	// Dialog is gone after the click.
	clicked, err = page.ClickIfPresent(ctx, `input[value="Tout refuser"]`, 300*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, clicked)

	labels, err := page.QueryAllLabels(ctx, "div.dpoVLd")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Taux de fréquentation de 35 % à 18 h.",
		"Taux de fréquentation actuel de 42 % (17 % en général).",
	}, labels)

	live, hist := domain.ParseTraffic(labels)
	require.NotNil(t, live)
	assert.Equal(t, 42, *live)
	assert.Equal(t, 17, *hist)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, gotLang, "fr-FR")
	assert.Equal(t, "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", gotAgent)
}

func TestSmoke_NavigationFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b := launchTestBrowser(t, ctx)
	page, err := b.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	navCtx, navCancel := context.WithTimeout(ctx, 5*time.Second)
	defer navCancel()
	// Port 1 is reserved and refuses connections.
	assert.Error(t, page.Goto(navCtx, "http://127.0.0.1:1/"))
}

func TestSmoke_ClickIfPresentReleasesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<!doctype html><html><body><input type="button" value="Tout refuser"></body></html>`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	b := launchTestBrowser(t, ctx)
	page, err := b.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()
	require.NoError(t, page.Goto(ctx, srv.URL))

	for range 20 {
		clicked, err := page.ClickIfPresent(ctx, `input[value="Tout refuser"]`, time.Hour)
		require.NoError(t, err)
		require.True(t, clicked)
	}

	// The page is still usable after every per-call timeout was released.
	labels, err := page.QueryAllLabels(ctx, "div.dpoVLd")
	require.NoError(t, err)
	assert.Empty(t, labels)
}
