package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hectronix2005/Legalbot-sub003/internal/docgen"
	"github.com/hectronix2005/Legalbot-sub003/internal/metrics"
	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"github.com/hectronix2005/Legalbot-sub003/internal/render"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"github.com/sirupsen/logrus"
)

var (
	// ErrContractNotFound 合同不存在
	ErrContractNotFound = errors.New("contract not found")
	// ErrVersionNotFound 版本不存在
	ErrVersionNotFound = errors.New("document version not found")
)

// ContractService 合同服务接口
type ContractService interface {
	Generate(ctx context.Context, req *GenerateContractRequest) (*GenerateContractResult, error)
	Get(id string) (*model.Contract, error)
	List(companyID string, page, pageSize int) ([]*model.Contract, int64, error)
	SaveEdit(ctx context.Context, contractID string, req *SaveEditRequest) (*model.DocumentVersion, error)
	Restore(ctx context.Context, versionID string, req *RestoreRequest) (*model.DocumentVersion, error)
	ListVersions(contractID string) ([]*model.DocumentVersion, error)
	Cleanup(ctx context.Context, contractID string, keep int) (int, error)
}

// GenerateContractRequest 生成合同请求
// @Description 基于模板和答案生成合同的请求参数
type GenerateContractRequest struct {
	TemplateID string            `json:"template_id" example:"tpl-001" binding:"required"` // 模板 ID
	Answers    map[string]string `json:"answers" binding:"required"` // 字段答案(字段名 -> 值)
}

// GenerateContractResult 生成合同结果
// Degraded 为 true 表示部分文件生成失败,合同与版本记录仍然完整
type GenerateContractResult struct {
	Contract *model.Contract        `json:"contract"`
	Version  *model.DocumentVersion `json:"version"`
	Degraded bool                   `json:"degraded"`
	Warnings []string               `json:"warnings,omitempty"`
}

// SaveEditRequest 保存编辑请求
// @Description 保存编辑后正文并生成新版本的请求参数
type SaveEditRequest struct {
	Content           string `json:"content" binding:"required"` // 编辑后的完整正文
	ChangeDescription string `json:"change_description" example:"Cláusula 3 actualizada"` // 变更说明
}

// RestoreRequest 恢复历史版本请求
// @Description 从历史版本恢复的请求参数
type RestoreRequest struct {
	ChangeDescription string `json:"change_description" example:"Restaurado a la versión 2"` // 变更说明
}

type contractService struct {
	contractRepo repository.ContractRepository
	versionRepo  repository.DocumentVersionRepository
	templateRepo repository.TemplateRepository
	sequenceRepo repository.SequenceRepository
	pipeline     docgen.Generator
	store        *storage.Store
	auditLogSvc  AuditLogService
}

// NewContractService 创建合同服务
func NewContractService(
	contractRepo repository.ContractRepository,
	versionRepo repository.DocumentVersionRepository,
	templateRepo repository.TemplateRepository,
	sequenceRepo repository.SequenceRepository,
	pipeline docgen.Generator,
	store *storage.Store,
	auditLogSvc AuditLogService,
) ContractService {
	return &contractService{
		contractRepo: contractRepo,
		versionRepo:  versionRepo,
		templateRepo: templateRepo,
		sequenceRepo: sequenceRepo,
		pipeline:     pipeline,
		store:        store,
		auditLogSvc:  auditLogSvc,
	}
}

// Generate 生成合同
// 步骤:
//  1. 加载模板并渲染正文(必填字段缺失时整体失败,不分配编号)
//  2. 分配合同编号(按公司和年度期间原子自增,编号一经分配不可变更)
//  3. 并发生成 DOCX 与 PDF 文件(允许部分失败)
//  4. 持久化合同与第 1 版记录(文件全部失败时路径为空,记录仍然落库)
func (s *contractService) Generate(ctx context.Context, req *GenerateContractRequest) (*GenerateContractResult, error) {
	start := time.Now()

	// 1. 加载模板
	tpl, err := s.templateRepo.FindByID(req.TemplateID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	// 渲染正文,校验失败直接返回缺失字段标签
	rendered, err := render.Render(tpl, req.Answers)
	if err != nil {
		return nil, err
	}

	// 2. 分配合同编号
	period := time.Now().Format("2006")
	seq, err := s.sequenceRepo.NextValue(ctx, tpl.CompanyID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate contract number: %w", err)
	}
	contractNumber := model.FormatContractNumber(period, seq)

	// 3. 生成文件
	genResult, genErr := s.pipeline.Generate(ctx, &docgen.Request{
		Identity:      contractNumber,
		Content:       rendered.Content,
		Substitutions: rendered.Substitutions,
		SourceName:    tpl.SourceName,
	})
	if genErr != nil {
		var bothFailed *docgen.GenerationError
		if !errors.As(genErr, &bothFailed) {
			return nil, genErr
		}
		// 两种格式都失败: 合同与版本仍然落库,文件路径为空
		logrus.Errorf("all artifacts failed for contract %s: %v", contractNumber, genErr)
	}

	docxPath, pdfPath := "", ""
	var warnings []string
	if genResult.Docx != nil {
		docxPath = genResult.Docx.Path
	} else {
		warnings = append(warnings, fmt.Sprintf("docx generation failed: %v", genResult.DocxErr))
	}
	if genResult.PDF != nil {
		pdfPath = genResult.PDF.Path
	} else {
		warnings = append(warnings, fmt.Sprintf("pdf generation failed: %v", genResult.PDFErr))
	}

	// 4. 持久化合同与第 1 版
	userID := getUserIDFromContext(ctx)
	contract := &model.Contract{
		ID:             uuid.New().String(),
		ContractNumber: contractNumber,
		TemplateID:     tpl.ID,
		CompanyID:      tpl.CompanyID,
		Content:        rendered.Content,
		DocxPath:       docxPath,
		PDFPath:        pdfPath,
		Status:         model.ContractStatusGenerated,
		CreatedBy:      userID,
	}
	if err := s.contractRepo.Save(contract); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	version := &model.DocumentVersion{
		ID:                uuid.New().String(),
		ContractID:        contract.ID,
		Version:           1,
		Content:           rendered.Content,
		EditableContent:   rendered.Content,
		DocxPath:          docxPath,
		PDFPath:           pdfPath,
		ChangeDescription: "Versión inicial",
		IsCurrent:         true,
		CreatedBy:         userID,
	}
	if err := s.versionRepo.Save(version); err != nil {
		return nil, fmt.Errorf("failed to save initial version: %w", err)
	}

	// 记录业务指标
	metrics.RecordContractGenerated()
	metrics.RecordGenerationDuration(time.Since(start).Seconds())

	// 审计日志异步记录,失败不影响主流程
	s.recordAudit(ctx, userID, "generate", "contract", contract.ID,
		map[string]interface{}{"contract_number": contractNumber, "template_id": tpl.ID})

	return &GenerateContractResult{
		Contract: contract,
		Version:  version,
		Degraded: len(warnings) > 0,
		Warnings: warnings,
	}, nil
}

// Get 获取合同详情
func (s *contractService) Get(id string) (*model.Contract, error) {
	contract, err := s.contractRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrContractNotFound
	}
	return contract, nil
}

// List 分页查询合同列表
func (s *contractService) List(companyID string, page, pageSize int) ([]*model.Contract, int64, error) {
	offset := (page - 1) * pageSize
	return s.contractRepo.FindAll(companyID, offset, pageSize)
}

// SaveEdit 保存编辑后的正文并生成新版本
// 新版本号为当前版本号加 1,旧版本的当前标记被清除,版本记录只追加不修改
func (s *contractService) SaveEdit(ctx context.Context, contractID string, req *SaveEditRequest) (*model.DocumentVersion, error) {
	contract, err := s.contractRepo.FindByID(contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrContractNotFound
	}

	nextVersion, err := s.nextVersionNumber(contractID)
	if err != nil {
		return nil, err
	}

	// 编辑后的正文已不再对应原始模板的占位符结构,走基础生成策略
	docxPath, pdfPath, warnings := s.regenerate(ctx, contract.ContractNumber, req.Content)

	if err := s.versionRepo.ClearCurrent(contractID); err != nil {
		return nil, fmt.Errorf("failed to clear current version: %w", err)
	}

	userID := getUserIDFromContext(ctx)
	version := &model.DocumentVersion{
		ID:                uuid.New().String(),
		ContractID:        contractID,
		Version:           nextVersion,
		Content:           req.Content,
		EditableContent:   req.Content,
		DocxPath:          docxPath,
		PDFPath:           pdfPath,
		ChangeDescription: req.ChangeDescription,
		IsCurrent:         true,
		CreatedBy:         userID,
	}
	if err := s.versionRepo.Save(version); err != nil {
		return nil, fmt.Errorf("failed to save version: %w", err)
	}

	contract.Content = req.Content
	contract.DocxPath = docxPath
	contract.PDFPath = pdfPath
	contract.Status = model.ContractStatusEdited
	if err := s.contractRepo.Save(contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	metrics.RecordVersionOperation("edit")
	s.recordAudit(ctx, userID, "edit", "version", version.ID,
		map[string]interface{}{"contract_id": contractID, "version": version.Version})

	if len(warnings) > 0 {
		logrus.Warnf("edit of contract %s saved with degraded artifacts: %v", contractID, warnings)
	}
	return version, nil
}

// Restore 从历史版本恢复
// 目标版本的正文被逐字复制进一个新版本,版本号取历史最大值加 1,
// 已用过的版本号永不复用
func (s *contractService) Restore(ctx context.Context, versionID string, req *RestoreRequest) (*model.DocumentVersion, error) {
	target, err := s.versionRepo.FindByID(versionID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrVersionNotFound
	}

	contract, err := s.contractRepo.FindByID(target.ContractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrContractNotFound
	}

	maxVersion, err := s.versionRepo.MaxVersion(target.ContractID)
	if err != nil {
		return nil, err
	}

	docxPath, pdfPath, warnings := s.regenerate(ctx, contract.ContractNumber, target.Content)

	if err := s.versionRepo.ClearCurrent(target.ContractID); err != nil {
		return nil, fmt.Errorf("failed to clear current version: %w", err)
	}

	userID := getUserIDFromContext(ctx)
	changeDescription := req.ChangeDescription
	if changeDescription == "" {
		changeDescription = fmt.Sprintf("Restaurado desde la versión %d", target.Version)
	}

	version := &model.DocumentVersion{
		ID:                uuid.New().String(),
		ContractID:        target.ContractID,
		Version:           maxVersion + 1,
		Content:           target.Content,
		EditableContent:   target.EditableContent,
		DocxPath:          docxPath,
		PDFPath:           pdfPath,
		ChangeDescription: changeDescription,
		IsCurrent:         true,
		CreatedBy:         userID,
	}
	if err := s.versionRepo.Save(version); err != nil {
		return nil, fmt.Errorf("failed to save restored version: %w", err)
	}

	contract.Content = target.Content
	contract.DocxPath = docxPath
	contract.PDFPath = pdfPath
	contract.Status = model.ContractStatusRestored
	if err := s.contractRepo.Save(contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	metrics.RecordVersionOperation("restore")
	s.recordAudit(ctx, userID, "restore", "version", version.ID,
		map[string]interface{}{"contract_id": target.ContractID, "from_version": target.Version, "version": version.Version})

	if len(warnings) > 0 {
		logrus.Warnf("restore of contract %s saved with degraded artifacts: %v", target.ContractID, warnings)
	}
	return version, nil
}

// ListVersions 按版本号倒序返回合同的全部版本
func (s *contractService) ListVersions(contractID string) ([]*model.DocumentVersion, error) {
	contract, err := s.contractRepo.FindByID(contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, ErrContractNotFound
	}
	return s.versionRepo.FindByContractID(contractID)
}

// Cleanup 清理合同的历史生成文件
// 每种格式各保留最近 keep 个文件,只删除磁盘文件,版本记录不动
func (s *contractService) Cleanup(ctx context.Context, contractID string, keep int) (int, error) {
	contract, err := s.contractRepo.FindByID(contractID)
	if err != nil {
		return 0, err
	}
	if contract == nil {
		return 0, ErrContractNotFound
	}

	removed, err := s.store.CleanupArtifacts(contract.ContractNumber, keep)
	if err != nil {
		return removed, err
	}

	metrics.RecordArtifactsCleaned(removed)
	s.recordAudit(ctx, getUserIDFromContext(ctx), "cleanup", "contract", contractID,
		map[string]interface{}{"contract_number": contract.ContractNumber, "removed": removed, "keep": keep})

	return removed, nil
}

// nextVersionNumber 取当前版本号加 1,没有当前版本时退回到历史最大值加 1
func (s *contractService) nextVersionNumber(contractID string) (int, error) {
	current, err := s.versionRepo.FindCurrent(contractID)
	if err != nil {
		return 0, err
	}
	if current != nil {
		return current.Version + 1, nil
	}
	max, err := s.versionRepo.MaxVersion(contractID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// regenerate 用基础策略重新生成文件,部分失败只降级不报错
func (s *contractService) regenerate(ctx context.Context, contractNumber, content string) (docxPath, pdfPath string, warnings []string) {
	genResult, err := s.pipeline.Generate(ctx, &docgen.Request{
		Identity: contractNumber,
		Content:  content,
	})
	if err != nil {
		var bothFailed *docgen.GenerationError
		if !errors.As(err, &bothFailed) {
			warnings = append(warnings, err.Error())
			return "", "", warnings
		}
	}
	if genResult.Docx != nil {
		docxPath = genResult.Docx.Path
	} else {
		warnings = append(warnings, fmt.Sprintf("docx generation failed: %v", genResult.DocxErr))
	}
	if genResult.PDF != nil {
		pdfPath = genResult.PDF.Path
	} else {
		warnings = append(warnings, fmt.Sprintf("pdf generation failed: %v", genResult.PDFErr))
	}
	return docxPath, pdfPath, warnings
}

// recordAudit 异步记录审计日志,不阻塞主流程
func (s *contractService) recordAudit(ctx context.Context, userID, action, resourceType, resourceID string, details interface{}) {
	if s.auditLogSvc == nil || userID == "" {
		return
	}
	go func() {
		if err := s.auditLogSvc.RecordAction(ctx, userID, action, resourceType, resourceID, details); err != nil {
			logrus.Warnf("failed to record audit log: %v", err)
		}
	}()
}
