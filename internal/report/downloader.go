package report

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rickgao/stockdb/internal/fetch"
)

// ErrNoReport is returned when the document server lists no report for the
// requested company and year.
var ErrNoReport = errors.New("no annual report")

// DownloaderConfig holds document server settings.
type DownloaderConfig struct {
	BaseURL  string        // Document server root, also prefixed to relative links
	FormPath string        // Form endpoint under BaseURL
	PDFDir   string        // Where PDFs are written
	MinWait  time.Duration // Lower bound of the pause between requests
	MaxWait  time.Duration // Upper bound of the pause between requests
}

// Downloader fetches annual report PDFs.
type Downloader struct {
	cfg    DownloaderConfig
	http   *fetch.Client
	logger *slog.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(cfg DownloaderConfig, hc *fetch.Client, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxWait < cfg.MinWait {
		cfg.MaxWait = cfg.MinWait
	}
	return &Downloader{cfg: cfg, http: hc, logger: logger}
}

// PDFPath returns where the report for ticker and year is stored.
func (d *Downloader) PDFPath(ticker string, year int) string {
	return filepath.Join(d.cfg.PDFDir, fmt.Sprintf("%d_%s.pdf", year, ticker))
}

// AnnualReport downloads the annual report of ticker for year (the
// exchange's own year numbering) and returns the written PDF path.
func (d *Downloader) AnnualReport(ctx context.Context, ticker string, year int) (string, error) {
	formURL := d.cfg.BaseURL + d.cfg.FormPath

	listing, err := d.http.PostForm(ctx, formURL, url.Values{
		"id":     {""},
		"key":    {""},
		"step":   {"1"},
		"co_id":  {ticker},
		"year":   {strconv.Itoa(year)},
		"seamon": {""},
		"mtype":  {"F"},
		"dtype":  {"F04"},
	})
	if err != nil {
		return "", fmt.Errorf("list report files: %w", err)
	}

	filename, err := firstAnchor(listing, func(n *html.Node) (string, bool) {
		text := strings.TrimSpace(textOf(n))
		return text, text != ""
	})
	if err != nil {
		return "", err
	}
	d.logger.Info("found annual report", "ticker", ticker, "year", year, "file", filename)

	if err := d.pause(ctx); err != nil {
		return "", err
	}

	body, err := d.http.PostForm(ctx, formURL, url.Values{
		"step":     {"9"},
		"kind":     {"F"},
		"co_id":    {ticker},
		"filename": {filename},
	})
	if err != nil {
		return "", fmt.Errorf("request report file: %w", err)
	}

	var pdf []byte
	if strings.EqualFold(filepath.Ext(filename), ".zip") {
		pdf, err = pdfFromZip(body)
		if err != nil {
			return "", err
		}
	} else {
		href, err := firstAnchor(body, func(n *html.Node) (string, bool) {
			v, ok := attrOf(n, "href")
			return v, ok && v != ""
		})
		if err != nil {
			return "", err
		}

		if err := d.pause(ctx); err != nil {
			return "", err
		}

		pdf, err = d.http.Get(ctx, d.cfg.BaseURL+href, nil)
		if err != nil {
			return "", fmt.Errorf("download report: %w", err)
		}
	}

	path := d.PDFPath(ticker, year)
	if err := os.MkdirAll(d.cfg.PDFDir, 0o755); err != nil {
		return "", fmt.Errorf("create pdf dir: %w", err)
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	d.logger.Info("saved annual report", "ticker", ticker, "year", year, "path", path, "bytes", len(pdf))
	return path, nil
}

// pause waits a random duration in [MinWait, MaxWait].
func (d *Downloader) pause(ctx context.Context) error {
	wait := d.cfg.MinWait
	if spread := d.cfg.MaxWait - d.cfg.MinWait; spread > 0 {
		wait += time.Duration(rand.Int64N(int64(spread) + 1))
	}
	return fetch.Pause(ctx, wait)
}

// pdfFromZip returns the last .pdf member of the archive.
func pdfFromZip(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open report archive: %w", err)
	}

	var out []byte
	for _, f := range zr.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		out = buf.Bytes()
	}

	if out == nil {
		return nil, fmt.Errorf("%w: archive holds no pdf", ErrNoReport)
	}
	return out, nil
}

// firstAnchor parses page and applies pick to the first <a> element.
func firstAnchor(page []byte, pick func(*html.Node) (string, bool)) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse report page: %w", err)
	}

	a := findElement(doc, atom.A)
	if a == nil {
		return "", ErrNoReport
	}
	v, ok := pick(a)
	if !ok {
		return "", ErrNoReport
	}
	return v, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attrOf(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
