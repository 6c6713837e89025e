package repository

import (
	"errors"

	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"gorm.io/gorm"
)

// TemplateRepository 模板仓储接口
type TemplateRepository interface {
	Save(template *model.Template) error
	FindByID(id string) (*model.Template, error)
	FindByCompanyID(companyID string) ([]*model.Template, error)
	FindAll(offset, limit int) ([]*model.Template, int64, error)
	Delete(id string) error
}

// templateRepository 模板仓储实现
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建模板仓储
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Save 保存模板
func (r *templateRepository) Save(template *model.Template) error {
	return r.db.Save(template).Error
}

// FindByID 根据 ID 查找模板,不存在时返回 nil
func (r *templateRepository) FindByID(id string) (*model.Template, error) {
	var template model.Template
	if err := r.db.Where("id = ?", id).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

// FindByCompanyID 查找公司下的所有模板
func (r *templateRepository) FindByCompanyID(companyID string) ([]*model.Template, error) {
	var templates []*model.Template
	err := r.db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&templates).Error
	return templates, err
}

// FindAll 分页查找所有模板
func (r *templateRepository) FindAll(offset, limit int) ([]*model.Template, int64, error) {
	var templates []*model.Template
	var total int64

	if err := r.db.Model(&model.Template{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&templates).Error
	return templates, total, err
}

// Delete 删除模板
func (r *templateRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Template{}).Error
}
