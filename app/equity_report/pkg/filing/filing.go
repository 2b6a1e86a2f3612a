// Package filing 抓取公司 10-K 原文页面并生成可读摘要。
package filing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

// ErrUnsupportedSource 原文不是 HTML 页面，例如 PDF
var ErrUnsupportedSource = errors.New("unsupported filing source")

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxChars = 2000
)

// Preview 原文摘要
type Preview struct {
	Company  string `json:"company"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Byline   string `json:"byline"`
	SiteName string `json:"site_name"`
	Excerpt  string `json:"excerpt"`
	Text     string `json:"text"`
}

// Previewer 抓取并解析原文
type Previewer struct {
	client   *http.Client
	maxChars int
}

// NewPreviewer client 为 nil 时使用 30 秒超时的默认客户端；maxChars 限制 Text 长度
func NewPreviewer(client *http.Client, maxChars int) *Previewer {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Previewer{client: client, maxChars: maxChars}
}

// Preview 抓取 c.SourceURL。PDF 直接返回 ErrUnsupportedSource
func (p *Previewer) Preview(ctx context.Context, c company.Company) (*Preview, error) {
	u, err := url.Parse(c.SourceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrUnsupportedSource, c.SourceURL)
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return nil, fmt.Errorf("%w: %s is a PDF", ErrUnsupportedSource, c.SourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch filing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch filing: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "pdf") {
		return nil, fmt.Errorf("%w: content type %s", ErrUnsupportedSource, ct)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return nil, fmt.Errorf("parse filing: %w", err)
	}
	logger.Log.Debugf("已解析 [%s] 原文：%s", c.Name, article.Title)

	return &Preview{
		Company:  c.Name,
		URL:      c.SourceURL,
		Title:    article.Title,
		Byline:   article.Byline,
		SiteName: article.SiteName,
		Excerpt:  article.Excerpt,
		Text:     truncate(strings.TrimSpace(article.TextContent), p.maxChars),
	}, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
