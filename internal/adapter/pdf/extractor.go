package pdf

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"hr-analytics/internal/common"
	"hr-analytics/internal/port"

	"github.com/ledongthuc/pdf"
)

var (
	// 文本里的链接：完整 URL，或者简历里常见的省略协议写法 github.com/xxx
	urlPattern      = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)
	bareHostPattern = regexp.MustCompile(`(?:^|[\s(])((?:www\.)?github\.com/[\w.\-/]+)`)
)

// Extractor 实现了 port.ResumeParser 接口
type Extractor struct{}

// NewExtractor 创建 PDF 解析器
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract 提取全部页面的文本，以及超链接 (链接注解 + 正文里的 URL)
// 注解在前、正文在后；只合并两个来源之间的重复
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (result *port.ExtractedResume, err error) {
	// 第三方解析库遇到损坏的文件会 panic
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = common.NewError(common.ErrCodePDF, fmt.Sprintf("PDF 解析崩溃: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, common.WrapError(common.ErrCodePDF, "无法打开 PDF", err)
	}

	var (
		text   strings.Builder
		annots []string
		fonts  = make(map[string]*pdf.Font)
	)

	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, common.WrapError(common.ErrCodePDF, fmt.Sprintf("第 %d 页文本提取失败", i), err)
		}
		text.WriteString(pageText)

		annots = append(annots, annotationLinks(page)...)
	}

	fullText := text.String()

	return &port.ExtractedResume{
		Text:  fullText,
		Links: mergeSources(annots, TextLinks(fullText)),
		Pages: pages,
	}, nil
}

// annotationLinks 读取页面上 /Link 注解的 /URI
func annotationLinks(page pdf.Page) []string {
	annots := page.V.Key("Annots")
	var links []string
	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		if annot.Key("Subtype").Name() != "Link" {
			continue
		}
		uri := strings.TrimSpace(annot.Key("A").Key("URI").RawString())
		if uri != "" {
			links = append(links, uri)
		}
	}
	return links
}

// TextLinks 从纯文本里找链接，省略协议的 github.com 链接补上 https://
func TextLinks(text string) []string {
	var links []string
	for _, m := range urlPattern.FindAllString(text, -1) {
		links = append(links, strings.TrimRight(m, ".,;:"))
	}
	for _, m := range bareHostPattern.FindAllStringSubmatch(text, -1) {
		host := strings.TrimPrefix(strings.TrimRight(m[1], ".,;:"), "www.")
		links = append(links, "https://"+host)
	}
	return links
}

// mergeSources 同一个链接通常既是注解又出现在正文里，只在两个来源之间去重：
// 每个链接保留的次数取两边出现次数的较大值，简历里重复写的链接照样保留
func mergeSources(annots, textLinks []string) []string {
	credit := make(map[string]int, len(annots))
	out := make([]string, 0, len(annots)+len(textLinks))
	for _, link := range annots {
		credit[link]++
		out = append(out, link)
	}
	for _, link := range textLinks {
		if credit[link] > 0 {
			credit[link]--
			continue
		}
		out = append(out, link)
	}
	return out
}
