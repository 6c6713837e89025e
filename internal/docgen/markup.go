package docgen

import (
	"strings"

	"github.com/fumiama/go-docx"
)

// segmentKind PDF 布局样式
type segmentKind int

const (
	segmentTitle segmentKind = iota
	segmentHeading
	segmentBold
	segmentItalic
	segmentBody
)

// segment 一个待排版的文本块
type segment struct {
	Kind segmentKind
	Text string
}

// paragraphStyleMap DOCX 段落样式到 PDF 布局样式的固定映射表
var paragraphStyleMap = map[string]segmentKind{
	"Title":    segmentTitle,
	"Subtitle": segmentHeading,
	"Heading1": segmentHeading,
	"Heading2": segmentHeading,
	"Heading3": segmentHeading,
}

// docxSegments 把替换完成的 DOCX 文档转换为带样式的文本块序列
// 段落样式优先按样式表映射,无样式时根据 run 的加粗/斜体属性推断
func docxSegments(doc *docx.Docx) []segment {
	var segs []segment
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}

		var sb strings.Builder
		bold, italic := false, false
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			if run.RunProperties != nil {
				if run.RunProperties.Bold != nil {
					bold = true
				}
				if run.RunProperties.Italic != nil {
					italic = true
				}
			}
			for _, rc := range run.Children {
				if text, ok := rc.(*docx.Text); ok {
					sb.WriteString(text.Text)
				}
			}
		}

		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}

		kind := segmentBody
		if para.Properties != nil && para.Properties.Style != nil {
			if mapped, ok := paragraphStyleMap[para.Properties.Style.Val]; ok {
				kind = mapped
			}
		} else if bold {
			kind = segmentBold
		} else if italic {
			kind = segmentItalic
		}

		segs = append(segs, segment{Kind: kind, Text: text})
	}
	return segs
}

// plainSegments 基础策略: 标题 + 编号 + 去除标记后的正文段落
func plainSegments(identity, content string) []segment {
	segs := []segment{
		{Kind: segmentTitle, Text: "CONTRATO"},
		{Kind: segmentHeading, Text: identity},
	}
	for _, text := range splitParagraphs(stripMarkup(content)) {
		segs = append(segs, segment{Kind: segmentBody, Text: text})
	}
	return segs
}

// stripMarkup 去除正文中的 HTML 标签和常见的强调标记,只保留纯文本
func stripMarkup(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	out = strings.ReplaceAll(out, "**", "")
	out = strings.ReplaceAll(out, "__", "")
	return out
}

// splitParagraphs 按空行和换行切分正文,丢弃空白段落
func splitParagraphs(s string) []string {
	var paras []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paras = append(paras, line)
		}
	}
	return paras
}
