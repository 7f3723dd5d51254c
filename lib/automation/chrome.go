package automation

import (
	"context"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ChromeOptions struct {
	Headless bool
	// extra delay after the document reports complete, to let
	// interaction-triggered fetches land. defaults to 500ms.
	SettleDelay time.Duration
	UserAgent   string
}

// Chrome implements Browser on top of a headless (or headed) Chrome
// instance driven over the DevTools protocol.
type Chrome struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	settle        time.Duration
}

func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = time.Millisecond * 500
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(
		ctx,
		append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(ua),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		settle:        settle,
	}
	// starts the browser process and surfaces launch failures early
	err := chromedp.Run(browserCtx, network.Enable())
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Chrome) Close() error {
	c.cancelBrowser()
	c.cancelAlloc()
	return nil
}

// runs actions against the browser target while honoring the deadline
// of the caller's context.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := c.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(c.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) Locate(selector string) Control {
	return chromeControl{chrome: c, selector: selector}
}

func (c *Chrome) WaitForSelector(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.WaitVisible(selector, chromedp.BySearch))
}

func (c *Chrome) WaitForQuiescence(ctx context.Context) error {
	for {
		var state string
		err := c.run(ctx, chromedp.Evaluate("document.readyState", &state))
		if err != nil {
			return err
		}
		if state == "complete" {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond * 100):
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.settle):
	}
	return nil
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Evaluate(ctx context.Context, script string, out any) error {
	return c.run(ctx, chromedp.Evaluate(script, out))
}

func (c *Chrome) Press(ctx context.Context, key string) error {
	return c.run(ctx, chromedp.KeyEvent(key))
}

func (c *Chrome) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	err := c.run(ctx, chromedp.CaptureScreenshot(&buf))
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

type chromeControl struct {
	chrome   *Chrome
	selector string
}

func (c chromeControl) Click(ctx context.Context) error {
	return c.chrome.run(ctx, chromedp.Click(c.selector, chromedp.BySearch))
}

func (c chromeControl) Enabled(ctx context.Context) (bool, error) {
	var value string
	var hasDisabled bool
	err := c.chrome.run(ctx, chromedp.AttributeValue(c.selector, "disabled", &value, &hasDisabled, chromedp.BySearch))
	if err != nil {
		return false, err
	}
	return !hasDisabled, nil
}
