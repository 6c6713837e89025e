package repository

import (
	"errors"

	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"gorm.io/gorm"
)

// DocumentVersionRepository 合同版本仓储接口
type DocumentVersionRepository interface {
	Save(version *model.DocumentVersion) error
	FindByID(id string) (*model.DocumentVersion, error)
	FindCurrent(contractID string) (*model.DocumentVersion, error)
	FindByContractID(contractID string) ([]*model.DocumentVersion, error)
	MaxVersion(contractID string) (int, error)
	ClearCurrent(contractID string) error
}

// documentVersionRepository 合同版本仓储实现
type documentVersionRepository struct {
	db *gorm.DB
}

// NewDocumentVersionRepository 创建合同版本仓储
func NewDocumentVersionRepository(db *gorm.DB) DocumentVersionRepository {
	return &documentVersionRepository{db: db}
}

// Save 保存版本
func (r *documentVersionRepository) Save(version *model.DocumentVersion) error {
	return r.db.Save(version).Error
}

// FindByID 根据 ID 查找版本,不存在时返回 nil
func (r *documentVersionRepository) FindByID(id string) (*model.DocumentVersion, error) {
	var version model.DocumentVersion
	if err := r.db.Where("id = ?", id).First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

// FindCurrent 查找合同的当前版本,没有当前版本时返回 nil
func (r *documentVersionRepository) FindCurrent(contractID string) (*model.DocumentVersion, error) {
	var version model.DocumentVersion
	err := r.db.Where("contract_id = ? AND is_current = ?", contractID, true).
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

// FindByContractID 查找合同的全部版本,按版本号倒序
func (r *documentVersionRepository) FindByContractID(contractID string) ([]*model.DocumentVersion, error) {
	var versions []*model.DocumentVersion
	err := r.db.Where("contract_id = ?", contractID).
		Order("version DESC").
		Find(&versions).Error
	return versions, err
}

// MaxVersion 查找合同的最大版本号,没有版本时返回 0
func (r *documentVersionRepository) MaxVersion(contractID string) (int, error) {
	var max int
	err := r.db.Model(&model.DocumentVersion{}).
		Where("contract_id = ?", contractID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	return max, err
}

// ClearCurrent 将合同的所有版本置为非当前
func (r *documentVersionRepository) ClearCurrent(contractID string) error {
	return r.db.Model(&model.DocumentVersion{}).
		Where("contract_id = ? AND is_current = ?", contractID, true).
		Update("is_current", false).Error
}
