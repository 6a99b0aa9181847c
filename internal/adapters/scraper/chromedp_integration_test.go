//go:build integration

package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"tribefeed/test/fixtures"
)

const headlessShell = "chromedp/headless-shell:latest"

// startChrome runs headless-shell and returns a DevTools websocket URL
// reachable from the test process.
func startChrome(ctx context.Context, t *testing.T) string {
	t.Helper()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        headlessShell,
			ExposedPorts: []string{"9222/tcp"},
			WaitingFor: wait.ForHTTP("/json/version").
				WithPort("9222/tcp").
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start %s: %v", headlessShell, err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.PortEndpoint(ctx, "9222/tcp", "")
	if err != nil {
		t.Fatalf("chrome endpoint: %v", err)
	}

	wsURL, err := devtoolsURL(endpoint)
	if err != nil {
		t.Fatal(err)
	}
	return wsURL
}

// devtoolsURL asks Chrome for its browser websocket and points it at
// endpoint, since Chrome reports its in-container address.
func devtoolsURL(endpoint string) (string, error) {
	resp, err := http.Get("http://" + endpoint + "/json/version")
	if err != nil {
		return "", errors.Wrap(err, "query /json/version")
	}
	defer resp.Body.Close()

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", errors.Wrap(err, "decode /json/version")
	}

	u, err := url.Parse(version.WebSocketDebuggerURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse %q", version.WebSocketDebuggerURL)
	}
	u.Host = endpoint
	return u.String(), nil
}

func startPool(t *testing.T) *BrowserPool {
	t.Helper()

	pool, err := NewRemoteBrowserPool(startChrome(context.Background(), t))
	if err != nil {
		t.Fatalf("NewRemoteBrowserPool() error = %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// renderFixture loads page into a blank tab and returns the DOM as Chrome
// serialises it, the same input the scraper hands to ParseTweets.
func renderFixture(ctx context.Context, pool *BrowserPool, page string) (string, error) {
	var out string
	err := pool.WithTab(ctx, func(tabCtx context.Context) error {
		return chromedp.Run(tabCtx,
			chromedp.Navigate("about:blank"),
			chromedp.Evaluate(`document.open(); document.write(`+strconv.Quote(page)+`); document.close();`, nil),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.OuterHTML("html", &out, chromedp.ByQuery),
		)
	})
	return out, err
}

func TestIntegration_RenderedRichTweet_Parses(t *testing.T) {
	// Arrange
	pool := startPool(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Act
	html, err := renderFixture(ctx, pool, fixtures.RichTweet())
	if err != nil {
		t.Fatalf("render fixture: %v", err)
	}
	tweets, err := ParseTweets(html, DefaultSelectors())

	// Assert
	if err != nil {
		t.Fatalf("ParseTweets() error = %v", err)
	}
	if len(tweets) != 1 {
		t.Fatalf("got %d tweets, want 1", len(tweets))
	}
	got := tweets[0]
	if got.Handle() != "techtribesje" || got.ID() != 2006396789411172607 {
		t.Errorf("tweet = %s/%d", got.Handle(), got.ID())
	}
	if got.Permalink() != "http://twitter.com/techtribesje/status/2006396789411172607" {
		t.Errorf("Permalink() = %q", got.Permalink())
	}
}

func TestIntegration_WithTab_OneTabAtATime(t *testing.T) {
	pool := startPool(t)

	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.WithTab(context.Background(), func(tabCtx context.Context) error {
				n := atomic.AddInt32(&active, 1)
				defer atomic.AddInt32(&active, -1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				return chromedp.Run(tabCtx, chromedp.Navigate("about:blank"))
			})
			if err != nil {
				t.Errorf("WithTab() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak concurrent tabs = %d, want 1", peak)
	}
}

func TestIntegration_WithTab_CallerTimeoutFreesSlot(t *testing.T) {
	pool := startPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.WithTab(ctx, func(tabCtx context.Context) error {
		<-tabCtx.Done()
		return tabCtx.Err()
	})
	if err == nil {
		t.Fatal("tab should end with its caller")
	}

	if _, err := renderFixture(context.Background(), pool, fixtures.EmptyPage()); err != nil {
		t.Errorf("next tab failed: %v", err)
	}
}

func TestIntegration_RenderedEmptyPage_HasNoTweets(t *testing.T) {
	pool := startPool(t)

	html, err := renderFixture(context.Background(), pool, fixtures.EmptyPage())
	if err != nil {
		t.Fatalf("render fixture: %v", err)
	}
	if _, err := ParseTweets(html, DefaultSelectors()); err == nil {
		t.Error("ParseTweets() should fail on a page without tweets")
	}
}
