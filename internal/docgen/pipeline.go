package docgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hectronix2005/Legalbot-sub003/internal/metrics"
	"github.com/hectronix2005/Legalbot-sub003/internal/render"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"github.com/sirupsen/logrus"
)

// Artifact 生成的文件
type Artifact struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

// Result 一次生成的结果
// DOCX 和 PDF 相互独立,允许部分成功
type Result struct {
	Docx    *Artifact
	PDF     *Artifact
	DocxErr error
	PDFErr  error
}

// Degraded 是否为部分成功
func (r *Result) Degraded() bool {
	return r.DocxErr != nil || r.PDFErr != nil
}

// GenerationError 两种格式全部生成失败
type GenerationError struct {
	DocxErr error
	PDFErr  error
}

// Error 实现 error 接口
func (e *GenerationError) Error() string {
	return fmt.Sprintf("document generation failed: docx: %v, pdf: %v", e.DocxErr, e.PDFErr)
}

// Request 生成请求
type Request struct {
	Identity      string                // 合同编号,用于文件命名
	Content       string                // 渲染完成的正文
	Substitutions []render.Substitution // 占位符替换表(保留原始排版的策略使用)
	SourceName    string                // 原始 DOCX 模板文件名,为空时使用基础策略
}

// Generator 文档生成接口,Pipeline 是默认实现
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// Pipeline 文档生成管线
// 每次调用生成一个 DOCX 和一个 PDF,两个任务并发执行且互不共享可变状态,
// 各自写入独立命名的文件,只有两者都失败时整个调用才失败
type Pipeline struct {
	store *storage.Store
}

// NewPipeline 创建文档生成管线
func NewPipeline(store *storage.Store) *Pipeline {
	return &Pipeline{store: store}
}

// Generate 生成 DOCX 与 PDF 文件
// 生成策略在调用开始时根据原始模板文件是否可用一次性确定:
// 文件存在时走保留原始排版的策略,否则回退到基础策略
func (p *Pipeline) Generate(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preserve := req.SourceName != "" && p.store.SourceExists(req.SourceName)
	if req.SourceName != "" && !preserve {
		// 原始文件缺失不是致命错误,降级到基础策略
		logrus.Warnf("source document %s unavailable, falling back to basic generation for %s",
			req.SourceName, req.Identity)
	}

	result := &Result{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Docx, result.DocxErr = p.generateDocx(req, preserve)
		metrics.RecordArtifactGenerated("docx", result.DocxErr == nil)
	}()
	go func() {
		defer wg.Done()
		result.PDF, result.PDFErr = p.generatePDF(req, preserve)
		metrics.RecordArtifactGenerated("pdf", result.PDFErr == nil)
	}()
	wg.Wait()

	if result.DocxErr != nil {
		logrus.Errorf("docx generation failed for %s: %v", req.Identity, result.DocxErr)
	}
	if result.PDFErr != nil {
		logrus.Errorf("pdf generation failed for %s: %v", req.Identity, result.PDFErr)
	}

	if result.DocxErr != nil && result.PDFErr != nil {
		return result, &GenerationError{DocxErr: result.DocxErr, PDFErr: result.PDFErr}
	}

	return result, nil
}

// artifactName 生成文件名: contrato_{identity}_{毫秒时间戳}.{ext}
// 时间戳保证同一合同反复生成时文件名不冲突,旧文件永不被覆盖
func artifactName(identity, ext string) string {
	return fmt.Sprintf("contrato_%s_%d.%s", identity, time.Now().UnixMilli(), ext)
}
