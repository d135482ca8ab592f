// Package price fetches and parses product prices from store pages.
//
// Extraction drives a headless Chrome via chromedp: the stores on the
// watchlist render prices client-side, so a plain HTTP GET sees none of
// them. Per-store selector strategies come first, with a generic
// "R$-bearing heading" probe as the fallback.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	logx "pricewatch/pkg/logx"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type ExtractorConfig struct {
	// PageTimeout bounds one navigation + extraction. Default 30s.
	PageTimeout time.Duration
	// SettleDelay waits for late price scripts after body-ready. Default 2s.
	SettleDelay time.Duration
	UserAgent   string
}

type Extractor struct {
	log logx.Logger
	cfg ExtractorConfig
}

func NewExtractor(cfg ExtractorConfig, log logx.Logger) *Extractor {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Extractor{log: log, cfg: cfg}
}

type probeResult struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

// Price loads url in a fresh browser context and returns the extracted
// price. Every failure mode (navigation error, blocked page, unparsable
// text) comes back as an error; the caller decides whether to log or skip.
func (e *Extractor) Price(ctx context.Context, url string) (float64, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		// Hide the automation flag; several stores serve a challenge page
		// to flagged browsers.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(e.cfg.UserAgent),
	)
	actx, acancel := chromedp.NewExecAllocator(ctx, opts...)
	defer acancel()
	cctx, ccancel := chromedp.NewContext(actx)
	defer ccancel()
	cctx, tcancel := context.WithTimeout(cctx, e.cfg.PageTimeout)
	defer tcancel()

	var res probeResult
	err := chromedp.Run(cctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(e.cfg.SettleDelay),
		chromedp.Evaluate(probeScript(url), &res),
	)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", url, err)
	}

	if strings.TrimSpace(res.Text) == "" {
		// Title helps tell a blocked/challenge page from a layout change.
		e.log.Warn("price not found on page",
			logx.String("url", url),
			logx.String("title", res.Title))
		return 0, ErrNoPrice
	}

	v, err := Parse(res.Text)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", prefix(res.Text, 40), err)
	}
	return v, nil
}

// selectorsFor picks the store-specific probes for a URL.
func selectorsFor(url string) (css []string, xpath []string) {
	switch {
	case strings.Contains(url, "kabum"):
		// Class names rotate, "finalPrice" survives redesigns.
		css = []string{`[class*="finalPrice"]`, `#blocoValores h4`}
	case strings.Contains(url, "terabyteshop"):
		css = []string{`#valVista`}
	case strings.Contains(url, "pichau"):
		xpath = []string{`//*[contains(text(),"à vista")]/preceding-sibling::div`}
	}
	// Generic fallback: any heading carrying a currency marker.
	xpath = append(xpath, `//h4[contains(text(),"R$")]`)
	return css, xpath
}

// probeScript builds the in-page probe. It tries CSS selectors, then
// XPath expressions, and always reports the document title for
// diagnostics.
func probeScript(url string) string {
	css, xpath := selectorsFor(url)
	if css == nil {
		// A nil slice marshals to null, which the loop below chokes on.
		css = []string{}
	}
	cssJSON, _ := json.Marshal(css)
	xpathJSON, _ := json.Marshal(xpath)
	return fmt.Sprintf(`(() => {
	const css = %s;
	const xpath = %s;
	const textOf = (el) => el && el.textContent ? el.textContent.trim() : "";
	for (const s of css) {
		const t = textOf(document.querySelector(s));
		if (t) return {text: t, title: document.title};
	}
	for (const x of xpath) {
		const r = document.evaluate(x, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		const t = textOf(r.singleNodeValue);
		if (t) return {text: t, title: document.title};
	}
	return {text: "", title: document.title};
})()`, cssJSON, xpathJSON)
}

func prefix(s string, maxN int) string {
	if len(s) <= maxN {
		return s
	}
	return s[:maxN] + "..."
}
