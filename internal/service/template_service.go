package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
)

// ErrTemplateNotFound 模板不存在
var ErrTemplateNotFound = errors.New("template not found")

// TemplateService 模板服务接口
type TemplateService interface {
	Create(ctx context.Context, req *CreateTemplateRequest) (*model.Template, error)
	Get(id string) (*model.Template, error)
	List(companyID string, page, pageSize int) ([]*model.Template, int64, error)
	Delete(ctx context.Context, id string) error
	AttachSource(ctx context.Context, id string, filename string, r io.Reader) (*model.Template, error)
}

// CreateTemplateRequest 创建模板请求
// @Description 创建合同模板的请求参数
type CreateTemplateRequest struct {
	CompanyID   string            `json:"company_id" example:"comp-001" binding:"required"` // 所属公司 ID
	Name        string            `json:"name" example:"Contrato de arrendamiento" binding:"required"` // 模板名称
	Description string            `json:"description" example:"Plantilla estándar"` // 模板描述
	Content     string            `json:"content"` // 模板正文(含占位符,可为空)
	Fields      []model.FieldSpec `json:"fields" binding:"required"` // 字段定义列表(保持声明顺序)
}

type templateService struct {
	templateRepo repository.TemplateRepository
	store        *storage.Store
	auditLogSvc  AuditLogService
}

// NewTemplateService 创建模板服务
func NewTemplateService(templateRepo repository.TemplateRepository, store *storage.Store, auditLogSvc AuditLogService) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		store:        store,
		auditLogSvc:  auditLogSvc,
	}
}

// Create 创建模板
func (s *templateService) Create(ctx context.Context, req *CreateTemplateRequest) (*model.Template, error) {
	if len(req.Fields) == 0 {
		return nil, errors.New("template requires at least one field")
	}

	// 校验字段定义: 名称唯一,派生来源必须指向已声明字段
	seen := make(map[string]bool, len(req.Fields))
	for _, f := range req.Fields {
		if f.Name == "" {
			return nil, errors.New("field name is required")
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = true
	}
	for _, f := range req.Fields {
		if f.RepeatSource != "" && !seen[f.RepeatSource] {
			return nil, fmt.Errorf("repeat source %s of field %s is not declared", f.RepeatSource, f.Name)
		}
	}

	tpl := &model.Template{
		ID:          uuid.New().String(),
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		Content:     req.Content,
		CreatedBy:   getUserIDFromContext(ctx),
	}
	if err := tpl.SetFieldSpecs(req.Fields); err != nil {
		return nil, fmt.Errorf("failed to encode template fields: %w", err)
	}

	if err := s.templateRepo.Save(tpl); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	// 记录审计日志
	if s.auditLogSvc != nil {
		userID := getUserIDFromContext(ctx)
		if userID != "" {
			details := map[string]interface{}{"template_id": tpl.ID, "name": tpl.Name}
			_ = s.auditLogSvc.RecordAction(ctx, userID, "create", "template", tpl.ID, details)
		}
	}

	return tpl, nil
}

// Get 获取模板详情
func (s *templateService) Get(id string) (*model.Template, error) {
	tpl, err := s.templateRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}
	return tpl, nil
}

// List 分页查询模板列表
// companyID 非空时按公司过滤
func (s *templateService) List(companyID string, page, pageSize int) ([]*model.Template, int64, error) {
	if companyID != "" {
		templates, err := s.templateRepo.FindByCompanyID(companyID)
		if err != nil {
			return nil, 0, err
		}
		return templates, int64(len(templates)), nil
	}

	offset := (page - 1) * pageSize
	return s.templateRepo.FindAll(offset, pageSize)
}

// Delete 删除模板
func (s *templateService) Delete(ctx context.Context, id string) error {
	tpl, err := s.templateRepo.FindByID(id)
	if err != nil {
		return err
	}
	if tpl == nil {
		return ErrTemplateNotFound
	}

	if err := s.templateRepo.Delete(id); err != nil {
		return err
	}

	// 记录审计日志
	if s.auditLogSvc != nil {
		userID := getUserIDFromContext(ctx)
		if userID != "" {
			details := map[string]interface{}{"template_id": id}
			_ = s.auditLogSvc.RecordAction(ctx, userID, "delete", "template", id, details)
		}
	}

	return nil
}

// AttachSource 上传模板的原始 DOCX 文件
// 之后基于该模板生成合同会走保留原始排版的策略
func (s *templateService) AttachSource(ctx context.Context, id string, filename string, r io.Reader) (*model.Template, error) {
	tpl, err := s.templateRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrTemplateNotFound
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".docx") {
		return nil, errors.New("source document must be a .docx file")
	}

	// 保存文件时以模板 ID 为前缀,避免不同模板的同名文件互相覆盖
	name := fmt.Sprintf("%s_%s", tpl.ID, filename)
	saved, err := s.store.SaveSource(name, r)
	if err != nil {
		return nil, fmt.Errorf("failed to save source document: %w", err)
	}

	tpl.SourceName = saved
	tpl.SourcePath = s.store.SourcePath(saved)
	if err := s.templateRepo.Save(tpl); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return tpl, nil
}

// getUserIDFromContext 从 context 中获取用户 ID（由认证中间件设置）
func getUserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}
