package rod

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webchat-bridge/internal/application/usecase"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/logger"
)

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T) BrowserConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("No Chrome/Chromium found")
	}
	cfg := DefaultConfig()
	cfg.Headless = true
	cfg.UserDataDir = filepath.Join(t.TempDir(), "profile")
	return cfg
}

func newTestBrowser(t *testing.T) *BrowserAdapter {
	t.Helper()
	b, err := NewBrowserAdapter(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Headless)
	assert.True(t, cfg.NoSandbox)
	assert.Equal(t, "./.browser_data", cfg.UserDataDir)
	assert.Equal(t, 1024, cfg.ScreenshotWidth)
}

func TestNewBrowserAdapter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBrowserAdapter(ctx, DefaultConfig(), logger.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBrowserAdapter_ProfileLocked(t *testing.T) {
	cfg := testConfig(t)

	first, err := NewBrowserAdapter(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer first.Close()

	_, err = NewBrowserAdapter(context.Background(), cfg, logger.Nop())
	assert.Error(t, err, "a second process must not share the profile")
}

func TestBrowserAdapter_CloseIsIdempotent(t *testing.T) {
	b := newTestBrowser(t)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.NewPage(context.Background())
	assert.ErrorIs(t, err, entity.ErrBrowserClosed)
}

func TestPageAdapter_ChatRoundTrip(t *testing.T) {
	server := serveHTML(t, FakeChatHTML)
	b := newTestBrowser(t)
	ctx := context.Background()

	page, err := b.NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(ctx, server.URL))
	require.NoError(t, page.WaitElement(ctx, "#prompt-textarea"))

	_, found, err := page.LastText(ctx, `[data-message-author-role="assistant"]`)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, page.Type(ctx, "#prompt-textarea", "ping"))
	require.NoError(t, page.Press(ctx, "Enter"))
	require.NoError(t, page.WaitGone(ctx, ".result-streaming"))

	text, found, err := page.LastText(ctx, `[data-message-author-role="assistant"]`)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Echo: ping", text)
}

func TestPageAdapter_WaitElementHonoursDeadline(t *testing.T) {
	server := serveHTML(t, EmptyHTML)
	b := newTestBrowser(t)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, page.Navigate(context.Background(), server.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err = page.WaitElement(ctx, "#prompt-textarea")
	assert.Error(t, err)
}

func TestPageAdapter_UnsupportedKey(t *testing.T) {
	b := newTestBrowser(t)
	page, err := b.NewPage(context.Background())
	require.NoError(t, err)

	assert.Error(t, page.Press(context.Background(), "F13"))
}

func TestPageAdapter_PressHonoursCancellation(t *testing.T) {
	server := serveHTML(t, FakeChatHTML)
	b := newTestBrowser(t)

	page, err := b.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, page.Navigate(context.Background(), server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, page.Press(ctx, "Enter"), context.Canceled)

	_, found, err := page.LastText(context.Background(), `[data-message-author-role="assistant"]`)
	require.NoError(t, err)
	assert.False(t, found, "a cancelled press must not submit")
}

func TestPageAdapter_ScreenshotAndHTML(t *testing.T) {
	server := serveHTML(t, FakeChatHTML)
	b := newTestBrowser(t)
	ctx := context.Background()

	page, err := b.NewPage(ctx)
	require.NoError(t, err)
	require.NoError(t, page.Navigate(ctx, server.URL))

	shot, err := page.Screenshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", shot.Format)
	assert.LessOrEqual(t, shot.Width, 1024)

	img, _, err := image.Decode(bytes.NewReader(shot.Data))
	require.NoError(t, err)
	assert.Equal(t, shot.Width, img.Bounds().Dx())

	html, err := page.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "prompt-textarea")
}

func TestPageAdapter_IsClosed(t *testing.T) {
	b := newTestBrowser(t)
	page, err := b.NewPage(context.Background())
	require.NoError(t, err)

	assert.False(t, page.IsClosed())
	require.NoError(t, page.Close())
	assert.True(t, page.IsClosed())
	require.NoError(t, page.Close())
}

func TestPageAdapter_IsClosedWhenTabClosedElsewhere(t *testing.T) {
	b := newTestBrowser(t)
	page, err := b.NewPage(context.Background())
	require.NoError(t, err)

	adapter, ok := page.(*PageAdapter)
	require.True(t, ok)
	require.NoError(t, adapter.page.Close())

	start := time.Now()
	assert.True(t, page.IsClosed())
	assert.Less(t, time.Since(start), infoTimeout+time.Second)
}

func TestWebChat_AgainstFakeChatPage(t *testing.T) {
	server := serveHTML(t, FakeChatHTML)
	cfg := testConfig(t)

	session := usecase.NewSessionManager(NewLauncher(cfg, logger.Nop()), usecase.SessionConfig{
		URL:          server.URL,
		ReadyTimeout: 20 * time.Second,
	}, logger.Nop())
	defer session.Shutdown()

	chat := usecase.Serialize(usecase.NewWebChat(session, usecase.DefaultWebChatConfig(), logger.Nop()))

	answer, err := chat.Query(context.Background(), "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Echo: Say hello", answer)

	answer, err = chat.Query(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, "Echo: again", answer)
}

func TestWebChat_GenerationTimeoutOnStuckPage(t *testing.T) {
	server := serveHTML(t, StuckChatHTML)
	cfg := testConfig(t)

	session := usecase.NewSessionManager(NewLauncher(cfg, logger.Nop()), usecase.SessionConfig{
		URL:          server.URL,
		ReadyTimeout: 20 * time.Second,
	}, logger.Nop())
	defer session.Shutdown()

	chat := usecase.NewWebChat(session, usecase.WebChatConfig{
		InputTimeout:      5 * time.Second,
		GenerationTimeout: 500 * time.Millisecond,
	}, logger.Nop())

	before, err := session.EnsurePage(context.Background())
	require.NoError(t, err)

	_, err = chat.Query(context.Background(), "hi")
	assert.ErrorIs(t, err, entity.ErrGenerationTimeout)

	after, err := session.EnsurePage(context.Background())
	require.NoError(t, err)
	assert.Same(t, before, after, "page is kept after a generation timeout")
}
