package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/docgen"
	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"github.com/hectronix2005/Legalbot-sub003/internal/render"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/hectronix2005/Legalbot-sub003/internal/service"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv 合同服务测试环境
type testEnv struct {
	db          *gorm.DB
	store       *storage.Store
	contractSvc service.ContractService
	templateSvc service.TemplateService
	versionRepo repository.DocumentVersionRepository
}

// setupEnv 创建带内存数据库和临时目录的测试环境
func setupEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Template{},
		&model.Contract{},
		&model.DocumentVersion{},
		&model.SequenceCounter{},
		&model.Company{},
		&model.AuditLogModel{},
	))

	store, err := storage.New(config.StorageConfig{
		ArtifactDir: filepath.Join(t.TempDir(), "documents"),
		SourceDir:   filepath.Join(t.TempDir(), "templates"),
	})
	require.NoError(t, err)

	templateRepo := repository.NewTemplateRepository(db)
	contractRepo := repository.NewContractRepository(db)
	versionRepo := repository.NewDocumentVersionRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	pipeline := docgen.NewPipeline(store)

	contractSvc := service.NewContractService(
		contractRepo, versionRepo, templateRepo, sequenceRepo,
		pipeline, store, nil,
	)
	templateSvc := service.NewTemplateService(templateRepo, store, nil)

	return &testEnv{
		db:          db,
		store:       store,
		contractSvc: contractSvc,
		templateSvc: templateSvc,
		versionRepo: versionRepo,
	}
}

// createTemplate 创建测试模板
func (e *testEnv) createTemplate(t *testing.T) *model.Template {
	tpl, err := e.templateSvc.Create(context.Background(), &service.CreateTemplateRequest{
		CompanyID: "comp-001",
		Name:      "arrendamiento",
		Content:   "Hola {{nombre}}, debes {{monto}}",
		Fields: []model.FieldSpec{
			{Name: "nombre", Label: "Nombre", Required: true},
			{Name: "monto", Label: "Monto", Required: true},
		},
	})
	require.NoError(t, err)
	return tpl
}

// assertExactlyOneCurrent 校验合同同一时刻恰好有一个当前版本
func (e *testEnv) assertExactlyOneCurrent(t *testing.T, contractID string, wantVersion int) {
	versions, err := e.versionRepo.FindByContractID(contractID)
	require.NoError(t, err)

	currents := 0
	for _, v := range versions {
		if v.IsCurrent {
			currents++
			assert.Equal(t, wantVersion, v.Version)
		}
	}
	assert.Equal(t, 1, currents)
}

// TestContractService_Generate 测试合同生成
func TestContractService_Generate(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	result, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Contract)
	require.NotNil(t, result.Version)

	assert.Equal(t, "Hola Ana, debes 100", result.Contract.Content)
	assert.True(t, strings.HasPrefix(result.Contract.ContractNumber, "CON-"))
	assert.True(t, strings.HasSuffix(result.Contract.ContractNumber, "-0001"))
	assert.Equal(t, model.ContractStatusGenerated, result.Contract.Status)
	assert.False(t, result.Degraded)

	// 第 1 版为当前版本,文件路径已记录
	assert.Equal(t, 1, result.Version.Version)
	assert.True(t, result.Version.IsCurrent)
	assert.FileExists(t, result.Version.DocxPath)
	assert.FileExists(t, result.Version.PDFPath)

	env.assertExactlyOneCurrent(t, result.Contract.ID, 1)
}

// pdfFailingGenerator 包装真实管线并使 PDF 生成失败,DOCX 不受影响
type pdfFailingGenerator struct {
	inner *docgen.Pipeline
}

func (g *pdfFailingGenerator) Generate(ctx context.Context, req *docgen.Request) (*docgen.Result, error) {
	result, err := g.inner.Generate(ctx, req)
	if err != nil {
		return result, err
	}
	if result.PDF != nil {
		os.Remove(result.PDF.Path)
	}
	result.PDF = nil
	result.PDFErr = errors.New("pdf renderer unavailable")
	return result, nil
}

// TestContractService_Generate_PDFFailureDegrades 测试 PDF 失败时合同降级落库
// DOCX 成功而 PDF 失败的调用仍然成功: 合同与第 1 版照常持久化,
// DOCX 路径有值而 PDF 路径为空,结果标记为降级并携带警告
func TestContractService_Generate_PDFFailureDegrades(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	contractRepo := repository.NewContractRepository(env.db)
	templateRepo := repository.NewTemplateRepository(env.db)
	sequenceRepo := repository.NewSequenceRepository(env.db)
	gen := &pdfFailingGenerator{inner: docgen.NewPipeline(env.store)}
	svc := service.NewContractService(
		contractRepo, env.versionRepo, templateRepo, sequenceRepo,
		gen, env.store, nil,
	)

	result, err := svc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Contract)
	require.NotNil(t, result.Version)

	assert.True(t, result.Degraded)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, strings.Join(result.Warnings, " "), "pdf")

	// 成功的格式有文件,失败的格式路径为空
	assert.FileExists(t, result.Contract.DocxPath)
	assert.Empty(t, result.Contract.PDFPath)

	// 落库记录与返回值一致
	saved, err := contractRepo.FindByID(result.Contract.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Empty(t, saved.PDFPath)
	assert.NotEmpty(t, saved.DocxPath)

	current, err := env.versionRepo.FindCurrent(result.Contract.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, 1, current.Version)
	assert.NotEmpty(t, current.DocxPath)
	assert.Empty(t, current.PDFPath)
}

// TestContractService_Generate_SequentialNumbers 测试同一公司合同编号连续递增
func TestContractService_Generate_SequentialNumbers(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	var numbers []string
	for i := 0; i < 3; i++ {
		result, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
			TemplateID: tpl.ID,
			Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
		})
		require.NoError(t, err)
		numbers = append(numbers, result.Contract.ContractNumber)
	}

	assert.True(t, strings.HasSuffix(numbers[0], "-0001"))
	assert.True(t, strings.HasSuffix(numbers[1], "-0002"))
	assert.True(t, strings.HasSuffix(numbers[2], "-0003"))
}

// TestContractService_Generate_ValidationFailure 测试校验失败时不分配编号
func TestContractService_Generate_ValidationFailure(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	_, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana"},
	})
	require.Error(t, err)

	var validationErr *render.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"Monto"}, validationErr.MissingLabels)

	// 校验失败不消耗序号,下一次生成仍然是 0001
	result, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Contract.ContractNumber, "-0001"))
}

// TestContractService_SaveEdit 测试编辑生成新版本
func TestContractService_SaveEdit(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	generated, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)
	contractID := generated.Contract.ID

	edited, err := env.contractSvc.SaveEdit(context.Background(), contractID, &service.SaveEditRequest{
		Content:           "Hola Ana, debes 200",
		ChangeDescription: "monto corregido",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, edited.Version)
	assert.True(t, edited.IsCurrent)
	assert.Equal(t, "Hola Ana, debes 200", edited.Content)
	env.assertExactlyOneCurrent(t, contractID, 2)

	// 合同缓存与状态同步更新,编号不变
	contract, err := env.contractSvc.Get(contractID)
	require.NoError(t, err)
	assert.Equal(t, "Hola Ana, debes 200", contract.Content)
	assert.Equal(t, model.ContractStatusEdited, contract.Status)
	assert.Equal(t, generated.Contract.ContractNumber, contract.ContractNumber)
}

// TestContractService_Restore 测试从历史版本恢复
func TestContractService_Restore(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	generated, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)
	contractID := generated.Contract.ID
	v1 := generated.Version

	_, err = env.contractSvc.SaveEdit(context.Background(), contractID, &service.SaveEditRequest{
		Content: "Hola Ana, debes 200",
	})
	require.NoError(t, err)

	// 恢复到第 1 版: 正文逐字复制,版本号取最大值加 1
	restored, err := env.contractSvc.Restore(context.Background(), v1.ID, &service.RestoreRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, restored.Version)
	assert.True(t, restored.IsCurrent)
	assert.Equal(t, v1.Content, restored.Content)
	env.assertExactlyOneCurrent(t, contractID, 3)

	contract, err := env.contractSvc.Get(contractID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusRestored, contract.Status)

	// 版本号永不复用: 再次编辑得到第 4 版
	edited, err := env.contractSvc.SaveEdit(context.Background(), contractID, &service.SaveEditRequest{
		Content: "Hola Ana, debes 300",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, edited.Version)
}

// TestContractService_ListVersions 测试版本历史按版本号倒序
func TestContractService_ListVersions(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	generated, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)

	_, err = env.contractSvc.SaveEdit(context.Background(), generated.Contract.ID, &service.SaveEditRequest{
		Content: "Hola Ana, debes 200",
	})
	require.NoError(t, err)

	versions, err := env.contractSvc.ListVersions(generated.Contract.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)
}

// TestContractService_NotFound 测试不存在的资源
func TestContractService_NotFound(t *testing.T) {
	env := setupEnv(t)

	_, err := env.contractSvc.Get("con-999")
	assert.ErrorIs(t, err, service.ErrContractNotFound)

	_, err = env.contractSvc.ListVersions("con-999")
	assert.ErrorIs(t, err, service.ErrContractNotFound)

	_, err = env.contractSvc.SaveEdit(context.Background(), "con-999", &service.SaveEditRequest{Content: "x"})
	assert.ErrorIs(t, err, service.ErrContractNotFound)

	_, err = env.contractSvc.Restore(context.Background(), "ver-999", &service.RestoreRequest{})
	assert.ErrorIs(t, err, service.ErrVersionNotFound)

	_, err = env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: "tpl-999",
		Answers:    map[string]string{},
	})
	assert.ErrorIs(t, err, service.ErrTemplateNotFound)
}

// TestContractService_Cleanup 测试清理历史文件
func TestContractService_Cleanup(t *testing.T) {
	env := setupEnv(t)
	tpl := env.createTemplate(t)

	generated, err := env.contractSvc.Generate(context.Background(), &service.GenerateContractRequest{
		TemplateID: tpl.ID,
		Answers:    map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.NoError(t, err)
	contractID := generated.Contract.ID

	// 多次编辑产生多代文件
	// 文件名带毫秒时间戳,间隔一下保证文件名和修改时间都不同
	for _, monto := range []string{"200", "300", "400"} {
		time.Sleep(5 * time.Millisecond)
		_, err = env.contractSvc.SaveEdit(context.Background(), contractID, &service.SaveEditRequest{
			Content: "Hola Ana, debes " + monto,
		})
		require.NoError(t, err)
	}

	removed, err := env.contractSvc.Cleanup(context.Background(), contractID, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, removed) // 每种格式 4 个文件,各保留 1 个

	// 最新版本的文件仍然存在
	current, err := env.versionRepo.FindCurrent(contractID)
	require.NoError(t, err)
	assert.FileExists(t, current.DocxPath)
	assert.FileExists(t, current.PDFPath)
}
