package docgen

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// generatePDF 生成 PDF 文件
// preserve 为 true 时在本任务内部独立解析原始模板并替换占位符,
// 再按样式映射表排版;否则使用基础版式。两个生成任务之间不共享文档对象
func (p *Pipeline) generatePDF(req *Request, preserve bool) (*Artifact, error) {
	var segs []segment
	if preserve {
		doc, err := p.loadAndSubstitute(req)
		if err != nil {
			return nil, err
		}
		segs = docxSegments(doc)
	} else {
		segs = plainSegments(req.Identity, req.Content)
	}

	filename := artifactName(req.Identity, "pdf")
	path := p.store.ArtifactPath(filename)
	if err := layoutPDF(path, req.Identity, segs); err != nil {
		return nil, fmt.Errorf("failed to write pdf file: %w", err)
	}
	return &Artifact{Path: path, Filename: filename}, nil
}

// layoutPDF 把文本块序列排版为 A4 纵向 PDF
// 含 CONTRATO 字样的块按主标题处理(居中加粗 16pt),
// 标题/加粗块用中号加粗字体,正文用 10pt 两端对齐
func layoutPDF(path, title string, segs []segment) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// 西文重音字符需要经过码表转换
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, seg := range segs {
		text := tr(seg.Text)
		switch {
		case seg.Kind == segmentTitle || isContractTitle(seg.Text):
			pdf.SetFont("Arial", "B", 16)
			pdf.CellFormat(0, 10, text, "", 1, "C", false, 0, "")
			pdf.Ln(2)
		case seg.Kind == segmentHeading || seg.Kind == segmentBold:
			pdf.SetFont("Arial", "B", 12)
			pdf.MultiCell(0, 7, text, "", "L", false)
			pdf.Ln(1)
		case seg.Kind == segmentItalic:
			pdf.SetFont("Arial", "I", 10)
			pdf.MultiCell(0, 5, text, "", "J", false)
			pdf.Ln(1)
		default:
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, text, "", "J", false)
			pdf.Ln(2)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// isContractTitle 识别合同主标题行
func isContractTitle(s string) bool {
	return strings.Contains(strings.ToUpper(s), "CONTRATO")
}
