package zomato

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserRenderer renders pages in headless Chrome. Each call uses its own
// incognito context and, unless ControlURL is set, its own browser process.
type BrowserRenderer struct {
	ControlURL  string
	Bin         string
	UserAgent   string
	Timeout     time.Duration
	SettleDelay time.Duration
}

var _ Renderer = (*BrowserRenderer)(nil)

func (r *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	controlURL := r.ControlURL
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(true).Leakless(true)
		if r.Bin != "" {
			l = l.Bin(r.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return "", fmt.Errorf("launch browser: %w", err)
		}
		defer l.Cleanup()
		defer l.Kill()
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect to browser: %w", err)
	}
	if r.ControlURL == "" {
		defer browser.Close()
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return "", fmt.Errorf("incognito context: %w", err)
	}
	defer incognito.Close()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	if r.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.UserAgent}); err != nil {
			return "", fmt.Errorf("set user agent: %w", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	if r.SettleDelay > 0 {
		// results are rendered client side after load
		_ = page.WaitStable(r.SettleDelay)
	}

	doc, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return doc, nil
}
