package docgen

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPipeline 创建使用临时目录的管线
func newTestPipeline(t *testing.T) (*Pipeline, *storage.Store) {
	store, err := storage.New(config.StorageConfig{
		ArtifactDir: filepath.Join(t.TempDir(), "documents"),
		SourceDir:   filepath.Join(t.TempDir(), "templates"),
	})
	require.NoError(t, err)
	return NewPipeline(store), store
}

// TestPipeline_GenerateBasic 测试基础策略同时产出 DOCX 和 PDF
func TestPipeline_GenerateBasic(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	result, err := pipeline.Generate(context.Background(), &Request{
		Identity: "CON-2025-0001",
		Content:  "Hola Ana, debes 100.\nCláusula primera: el arrendatario pagará puntualmente.",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Docx)
	require.NotNil(t, result.PDF)
	assert.NoError(t, result.DocxErr)
	assert.NoError(t, result.PDFErr)
	assert.False(t, result.Degraded())

	assert.FileExists(t, result.Docx.Path)
	assert.FileExists(t, result.PDF.Path)

	// 文件名: contrato_{编号}_{时间戳}.{ext}
	assert.True(t, strings.HasPrefix(result.Docx.Filename, "contrato_CON-2025-0001_"))
	assert.True(t, strings.HasSuffix(result.Docx.Filename, ".docx"))
	assert.True(t, strings.HasPrefix(result.PDF.Filename, "contrato_CON-2025-0001_"))
	assert.True(t, strings.HasSuffix(result.PDF.Filename, ".pdf"))
}

// TestPipeline_MissingSourceFallsBack 测试原始文件缺失时降级到基础策略
func TestPipeline_MissingSourceFallsBack(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	result, err := pipeline.Generate(context.Background(), &Request{
		Identity:   "CON-2025-0002",
		Content:    "contenido",
		SourceName: "no-existe.docx",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Docx)
	require.NotNil(t, result.PDF)
}

// TestPipeline_CancelledContext 测试已取消的 context 直接失败
func TestPipeline_CancelledContext(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Generate(ctx, &Request{
		Identity: "CON-2025-0003",
		Content:  "contenido",
	})
	assert.Error(t, err)
}

// TestStripMarkup 测试标记剥离
func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "texto plano", stripMarkup("texto plano"))
	assert.Equal(t, "negrita", stripMarkup("<b>negrita</b>"))
	assert.Equal(t, "énfasis", stripMarkup("**énfasis**"))
	assert.Equal(t, "ab", stripMarkup("a<span class=\"x\">b</span>"))
}

// TestSplitParagraphs 测试正文切分
func TestSplitParagraphs(t *testing.T) {
	paras := splitParagraphs("uno\n\ndos\n   \ntres\n")
	assert.Equal(t, []string{"uno", "dos", "tres"}, paras)

	assert.Nil(t, splitParagraphs(""))
	assert.Nil(t, splitParagraphs("  \n \n"))
}

// TestPlainSegments 测试基础策略的文本块结构
func TestPlainSegments(t *testing.T) {
	segs := plainSegments("CON-2025-0001", "primer párrafo\nsegundo párrafo")
	require.Len(t, segs, 4)
	assert.Equal(t, segmentTitle, segs[0].Kind)
	assert.Equal(t, "CONTRATO", segs[0].Text)
	assert.Equal(t, segmentHeading, segs[1].Kind)
	assert.Equal(t, "CON-2025-0001", segs[1].Text)
	assert.Equal(t, segmentBody, segs[2].Kind)
	assert.Equal(t, segmentBody, segs[3].Kind)
}

// TestIsContractTitle 测试主标题识别
func TestIsContractTitle(t *testing.T) {
	assert.True(t, isContractTitle("CONTRATO DE ARRENDAMIENTO"))
	assert.True(t, isContractTitle("Contrato de servicios"))
	assert.False(t, isContractTitle("Cláusula primera"))
}
