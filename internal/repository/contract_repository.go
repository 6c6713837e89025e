package repository

import (
	"errors"

	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"gorm.io/gorm"
)

// ContractRepository 合同仓储接口
type ContractRepository interface {
	Save(contract *model.Contract) error
	FindByID(id string) (*model.Contract, error)
	FindByNumber(number string) (*model.Contract, error)
	FindAll(companyID string, offset, limit int) ([]*model.Contract, int64, error)
}

// contractRepository 合同仓储实现
type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository 创建合同仓储
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

// Save 保存合同
func (r *contractRepository) Save(contract *model.Contract) error {
	return r.db.Save(contract).Error
}

// FindByID 根据 ID 查找合同,不存在时返回 nil
func (r *contractRepository) FindByID(id string) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.Where("id = ?", id).First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// FindByNumber 根据合同编号查找合同,不存在时返回 nil
func (r *contractRepository) FindByNumber(number string) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.Where("contract_number = ?", number).First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// FindAll 分页查找合同,companyID 为空时不过滤
func (r *contractRepository) FindAll(companyID string, offset, limit int) ([]*model.Contract, int64, error) {
	var contracts []*model.Contract
	var total int64

	query := r.db.Model(&model.Contract{})
	if companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&contracts).Error
	return contracts, total, err
}
