package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Options configures the crawler behavior
type Options struct {
	Width      int
	Height     int
	Timeout    time.Duration
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	Logger     *zap.Logger
}

// Capture opens url in a headless browser and returns its current markup and
// interactive elements.
func Capture(ctx context.Context, url string, opts Options) (*Snapshot, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(true).Context(ctx)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	} else {
		// Cleanup removes the user data dir, so only for the throwaway one.
		defer l.Cleanup()
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	logger.Debug("Browser launched", zap.String("control_url", controlURL))

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	// Don't hang on pages that keep sockets or polling open.
	page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	snap := &Snapshot{URL: url}

	if info, err := page.Info(); err == nil {
		snap.URL = info.URL
		snap.Title = info.Title
	}

	snap.HTML, err = page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page HTML: %w", err)
	}

	snap.Elements, err = extractElements(page)
	if err != nil {
		// The markup is what heal mode needs; the element list is a bonus.
		logger.Warn("Element extraction failed", zap.Error(err))
	}

	logger.Debug("Page captured",
		zap.String("url", snap.URL),
		zap.Int("html_bytes", len(snap.HTML)),
		zap.Int("elements", len(snap.Elements)))

	return snap, nil
}

const elementsScript = `() => {
	const elements = [];
	const seen = new Set();

	function validIdent(s) {
		if (!s) return false;
		if (/^-?[0-9]/.test(s)) return false;
		return !/[.:#\[\]()>~+*\/\\]/.test(s);
	}

	function selectorFor(el) {
		if (el.id && validIdent(el.id)) return '#' + el.id;
		const testID = el.getAttribute('data-test') || el.getAttribute('data-testid');
		if (testID) return '[data-test' + (el.hasAttribute('data-test') ? '' : 'id') + '="' + testID + '"]';
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		if (el.className && typeof el.className === 'string') {
			const classes = el.className.trim().split(/\s+/).filter(validIdent).slice(0, 2);
			if (classes.length > 0) {
				const sel = el.tagName.toLowerCase() + '.' + classes.join('.');
				try {
					if (document.querySelectorAll(sel).length === 1) return sel;
				} catch (e) {}
			}
		}
		const parent = el.parentElement;
		if (parent && parent !== document.body) {
			const index = Array.from(parent.children).indexOf(el) + 1;
			return selectorFor(parent) + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + index + ')';
		}
		return el.tagName.toLowerCase();
	}

	function add(el, type) {
		if (!el.offsetParent) return;
		const selector = selectorFor(el);
		if (seen.has(selector)) return;
		seen.add(selector);
		elements.push({
			selector: selector,
			type: type,
			text: (el.textContent || el.value || '').trim().slice(0, 50),
			placeholder: el.placeholder || '',
			name: el.name || '',
			id: el.id || ''
		});
	}

	document.querySelectorAll('button, [role="button"], input[type="submit"], input[type="button"]').forEach(el => add(el, 'button'));
	document.querySelectorAll('input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="checkbox"]):not([type="radio"]), textarea').forEach(el => add(el, el.type || 'text'));
	document.querySelectorAll('input[type="checkbox"], input[type="radio"]').forEach(el => add(el, el.type));
	document.querySelectorAll('select').forEach(el => add(el, 'select'));
	document.querySelectorAll('a[href]').forEach(el => {
		const href = el.getAttribute('href');
		if (href.startsWith('#') || href.startsWith('javascript:')) return;
		add(el, 'link');
	});

	return elements;
}`

// extractElements finds visible interactive elements on the page
func extractElements(page *rod.Page) ([]Element, error) {
	res, err := page.Eval(elementsScript)
	if err != nil {
		return nil, err
	}

	var elements []Element
	for _, v := range res.Value.Arr() {
		elements = append(elements, Element{
			Selector:    v.Get("selector").Str(),
			Type:        v.Get("type").Str(),
			Text:        v.Get("text").Str(),
			Placeholder: v.Get("placeholder").Str(),
			Name:        v.Get("name").Str(),
			ID:          v.Get("id").Str(),
		})
	}

	return elements, nil
}
