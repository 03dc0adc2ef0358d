package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/avolkov/hopweaver/internal/model"
	"github.com/avolkov/hopweaver/internal/util"
	"github.com/avolkov/hopweaver/internal/worker"
)

// ContentExtractor resolves a URL to readable page text. It is the
// external collaborator the coordinator delegates to on a cache miss.
type ContentExtractor interface {
	Extract(ctx context.Context, rawURL string) (*PageContent, error)
}

// PageContent is the extracted text plus whatever metadata the source
// exposed.
type PageContent struct {
	Title   string
	Excerpt string
	Text    string
}

// ReadabilityExtractor fetches a page over HTTP and extracts its readable
// text, falling back to a visible-text walk when readability gives up on
// the document structure.
type ReadabilityExtractor struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil disables robots checks
	limiter    *worker.Limiter     // nil disables rate limiting
}

// NewReadabilityExtractor creates an extractor from the HTTP configuration
func NewReadabilityExtractor(cfg model.HTTPConfig) *ReadabilityExtractor {
	e := &ReadabilityExtractor{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
	}
	if cfg.RespectRobots {
		e.robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	if cfg.RatePerSecond > 0 {
		e.limiter = worker.NewLimiter(cfg.RatePerSecond, cfg.RateBurst)
	}
	return e
}

// Extract fetches rawURL and returns its readable text
func (e *ReadabilityExtractor) Extract(ctx context.Context, rawURL string) (*PageContent, error) {
	if e.robots != nil && !e.robots.IsAllowed(ctx, rawURL) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL, err := url.Parse(resp.Request.URL.String())
	if err != nil {
		return nil, fmt.Errorf("parse final URL: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), finalURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return &PageContent{
			Title:   article.Title,
			Excerpt: article.Excerpt,
			Text:    strings.TrimSpace(article.TextContent),
		}, nil
	}

	text, err := visibleText(string(body))
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	return &PageContent{Text: text}, nil
}

// visibleText walks the HTML tree collecting text nodes, skipping
// scripts and styles.
func visibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String()), nil
}
