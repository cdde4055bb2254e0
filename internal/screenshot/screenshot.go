// Package screenshot renders a trade confirmation card to PNG via headless
// Chrome. A missing browser downgrades to a no-op rather than failing trades.
package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"dip-trader/internal/models"
)

const (
	cardWidth  = 720
	cardHeight = 440

	renderTimeout = 20 * time.Second
	settleDelay   = 500 * time.Millisecond
)

const cardTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { margin: 0; font-family: -apple-system, Helvetica, Arial, sans-serif; background: #1c1c28; color: #eee; }
.card { margin: 24px; padding: 28px 32px; background: #23232f; border-radius: 12px; border: 1px solid #34344a; }
.card h1 { font-size: 20px; margin: 0 0 4px 0; }
.mode { font-size: 12px; letter-spacing: 1px; color: {{if .IsPaper}}#e6b63c{{else}}#4ccb6f{{end}}; }
.grid { display: grid; grid-template-columns: 1fr 1fr; gap: 14px 40px; margin-top: 22px; }
.grid .label { font-size: 11px; text-transform: uppercase; color: #888; }
.grid .value { font-size: 18px; margin-top: 2px; }
.drop { color: #e05c5c; }
.footer { margin-top: 26px; font-size: 11px; color: #666; }
</style>
</head>
<body>
<div class="card">
<h1>BUY {{.Symbol}}</h1>
<div class="mode">{{if .IsPaper}}PAPER TRADING{{else}}LIVE{{end}}</div>
<div class="grid">
<div><div class="label">Quantity</div><div class="value">{{.Quantity}}</div></div>
<div><div class="label">Price</div><div class="value">${{printf "%.2f" .Price}}</div></div>
<div><div class="label">Total Cost</div><div class="value">${{printf "%.2f" .TotalCost}}</div></div>
<div><div class="label">Benchmark Drop</div><div class="value drop">-{{printf "%.2f" .DeclinePct}}%</div></div>
</div>
<div class="footer">{{.Date}} &bull; order {{.ID}} &bull; session {{.SessionID}}</div>
</div>
</body>
</html>
`

var cardTmpl = template.Must(template.New("card").Parse(cardTemplate))

// ChromeCapture renders trade cards into PNG files under dir.
type ChromeCapture struct {
	dir    string
	logger zerolog.Logger

	checkOnce sync.Once
	checkErr  error
}

// NewChromeCapture creates a capturer writing into dir, creating it if needed.
func NewChromeCapture(dir string, logger zerolog.Logger) (*ChromeCapture, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating screenshots dir: %w", err)
	}
	return &ChromeCapture{dir: dir, logger: logger}, nil
}

// Capture renders the trade card for rec and writes it as a PNG, returning
// the file path.
func (c *ChromeCapture) Capture(ctx context.Context, rec models.TradeRecord) (string, error) {
	if err := c.headlessAvailable(ctx); err != nil {
		return "", fmt.Errorf("headless chrome unavailable: %w", err)
	}

	html, err := c.buildCard(rec)
	if err != nil {
		return "", err
	}

	png, err := renderToPNG(ctx, html, cardWidth, cardHeight)
	if err != nil {
		return "", fmt.Errorf("rendering trade card: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("trade_%s_%s.png",
		rec.Symbol, rec.Timestamp.Format("20060102_150405")))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("writing trade card: %w", err)
	}

	c.logger.Debug().Str("path", path).Msg("Trade screenshot captured")
	return path, nil
}

func (c *ChromeCapture) buildCard(rec models.TradeRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := cardTmpl.Execute(&buf, rec); err != nil {
		return nil, fmt.Errorf("building trade card: %w", err)
	}
	return buf.Bytes(), nil
}

// headlessAvailable probes for a usable Chrome once per process.
func (c *ChromeCapture) headlessAvailable(ctx context.Context) error {
	c.checkOnce.Do(func() {
		probe, cancel := chromedp.NewContext(ctx)
		defer cancel()
		probeCtx, cancelTimeout := context.WithTimeout(probe, 10*time.Second)
		defer cancelTimeout()
		c.checkErr = chromedp.Run(probeCtx)
	})
	return c.checkErr
}

func renderToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, renderTimeout)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.FullScreenshot(&png, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return png, nil
}

// NoopCapture satisfies the capture interface when screenshots are disabled.
type NoopCapture struct{}

func (NoopCapture) Capture(context.Context, models.TradeRecord) (string, error) {
	return "", nil
}
