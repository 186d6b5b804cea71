package twse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"github.com/rickgao/stockdb/internal/model"
)

// headerRows are the title and column header rows of the listing table.
const headerRows = 2

// ListCompanies fetches the listed company page and returns every row that
// carries a 4-digit ticker.
func (c *Client) ListCompanies(ctx context.Context) ([]model.Company, error) {
	body, err := c.http.Get(ctx, c.isinURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}

	companies, err := ParseListing(transform.NewReader(bytes.NewReader(body), traditionalchinese.Big5.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	c.logger.Info("fetched company listing", "count", len(companies))
	return companies, nil
}

// ParseListing extracts companies from UTF-8 listing HTML.
func ParseListing(r io.Reader) ([]model.Company, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	rows := findAll(doc, atom.Tr)
	if len(rows) <= headerRows {
		return nil, nil
	}

	var companies []model.Company
	for _, tr := range rows[headerRows:] {
		cells := children(tr, atom.Td)
		if len(cells) < 5 {
			continue
		}

		parts := strings.Split(textContent(cells[0]), "\u3000")
		if len(parts) != 2 {
			continue
		}

		ticker := strings.TrimSpace(parts[0])
		if !model.ValidTicker(ticker) {
			continue
		}

		companies = append(companies, model.Company{
			Ticker:   ticker,
			Name:     strings.TrimSpace(parts[1]),
			Industry: strings.TrimSpace(textContent(cells[4])),
		})
	}

	return companies, nil
}

// Lister memoizes the company listing for the life of the process.
type Lister struct {
	client *Client

	mu        sync.Mutex
	companies []model.Company
}

// NewLister creates a memoizing lister.
func NewLister(c *Client) *Lister {
	return &Lister{client: c}
}

// Companies returns the cached listing, fetching it on first use. A failed
// or empty fetch is not cached.
func (l *Lister) Companies(ctx context.Context) ([]model.Company, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.companies != nil {
		return l.companies, nil
	}

	companies, err := l.client.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if len(companies) > 0 {
		l.companies = companies
	}
	return companies, nil
}

// findAll returns every descendant element of n with tag a, in document order.
func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// children returns the direct child elements of n with tag a.
func children(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

func textContent(n *html.Node) string {
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
