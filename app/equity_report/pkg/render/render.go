// Package render 把报告 markdown 转成 HTML。
package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// HTML 转换 markdown，模型输出外层的 ```markdown 代码块会先被去掉
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(StripOuterFence(markdown)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StripOuterFence 去掉包住整段文本的代码块标记
func StripOuterFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	body := t[3 : len(t)-3]
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	lang := strings.TrimSpace(body[:nl])
	if lang != "" && lang != "markdown" && lang != "md" {
		return s
	}
	return strings.TrimSpace(body[nl+1:])
}
