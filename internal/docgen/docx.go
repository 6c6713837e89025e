package docgen

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fumiama/go-docx"
	"github.com/hectronix2005/Legalbot-sub003/internal/render"
)

// generateDocx 生成 DOCX 文件
// preserve 为 true 时解析原始模板并在每个文本节点上做占位符替换,
// 保留原始文档的全部排版;否则从渲染后的正文构造一个基础版式的文档
func (p *Pipeline) generateDocx(req *Request, preserve bool) (*Artifact, error) {
	var (
		doc *docx.Docx
		err error
	)
	if preserve {
		doc, err = p.loadAndSubstitute(req)
	} else {
		doc = composeBasicDocx(req)
	}
	if err != nil {
		return nil, err
	}

	filename := artifactName(req.Identity, "docx")
	path := p.store.ArtifactPath(filename)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create docx file: %w", err)
	}
	defer f.Close()

	if _, err := doc.WriteTo(f); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write docx file: %w", err)
	}

	return &Artifact{Path: path, Filename: filename}, nil
}

// loadAndSubstitute 解析原始 DOCX 模板并执行占位符替换
// 每次调用独立解析一份文档,DOCX 与 PDF 两个任务之间不共享解析结果
// 模板整体读入内存后再解析: WriteTo 序列化时会延迟读取未修改的 zip 条目,
// 底层 reader 必须在写出完成前保持可用
func (p *Pipeline) loadAndSubstitute(req *Request) (*docx.Docx, error) {
	f, _, err := p.store.OpenSource(req.SourceName)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read source document %s: %w", req.SourceName, err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse source document %s: %w", req.SourceName, err)
	}

	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			substituteParagraph(para, req.Substitutions)
		}
	}
	return doc, nil
}

// substituteParagraph 在段落内的每个文本节点上按声明顺序替换占位符
// 替换发生在 run 粒度,不改动任何排版属性
func substituteParagraph(para *docx.Paragraph, subs []render.Substitution) {
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if text, ok := rc.(*docx.Text); ok {
				text.Text = render.Substitute(text.Text, subs)
			}
		}
	}
}

// composeBasicDocx 基础策略: 居中标题 + 合同编号副标题 + 正文段落
func composeBasicDocx(req *Request) *docx.Docx {
	doc := docx.New().WithDefaultTheme()

	title := doc.AddParagraph().Justification("center")
	title.AddText("CONTRATO").Size("32").Bold()

	subtitle := doc.AddParagraph().Justification("center")
	subtitle.AddText(req.Identity).Size("24")

	doc.AddParagraph()

	for _, text := range splitParagraphs(stripMarkup(req.Content)) {
		doc.AddParagraph().AddText(text).Size("22")
	}
	return doc
}
