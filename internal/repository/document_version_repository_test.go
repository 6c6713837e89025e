package repository_test

import (
	"testing"
	"time"

	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveVersion 保存一个测试版本
func saveVersion(t *testing.T, repo repository.DocumentVersionRepository, id, contractID string, version int, current bool) {
	err := repo.Save(&model.DocumentVersion{
		ID:         id,
		ContractID: contractID,
		Version:    version,
		Content:    "contenido",
		IsCurrent:  current,
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
}

// TestDocumentVersionRepository_FindCurrent 测试查找当前版本
func TestDocumentVersionRepository_FindCurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentVersionRepository(db)

	saveVersion(t, repo, "ver-001", "con-001", 1, false)
	saveVersion(t, repo, "ver-002", "con-001", 2, true)

	current, err := repo.FindCurrent("con-001")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "ver-002", current.ID)
	assert.Equal(t, 2, current.Version)

	// 没有版本的合同返回 nil
	current, err = repo.FindCurrent("con-999")
	require.NoError(t, err)
	assert.Nil(t, current)

	// 不存在的版本 ID 返回 nil
	missing, err := repo.FindByID("ver-999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestDocumentVersionRepository_FindByContractID 测试版本列表按版本号倒序
func TestDocumentVersionRepository_FindByContractID(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentVersionRepository(db)

	saveVersion(t, repo, "ver-001", "con-001", 1, false)
	saveVersion(t, repo, "ver-003", "con-001", 3, true)
	saveVersion(t, repo, "ver-002", "con-001", 2, false)
	saveVersion(t, repo, "ver-100", "con-002", 1, true)

	versions, err := repo.FindByContractID("con-001")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 3, versions[0].Version)
	assert.Equal(t, 2, versions[1].Version)
	assert.Equal(t, 1, versions[2].Version)
}

// TestDocumentVersionRepository_MaxVersion 测试历史最大版本号
func TestDocumentVersionRepository_MaxVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentVersionRepository(db)

	// 没有版本时返回 0
	max, err := repo.MaxVersion("con-001")
	require.NoError(t, err)
	assert.Equal(t, 0, max)

	saveVersion(t, repo, "ver-001", "con-001", 1, false)
	saveVersion(t, repo, "ver-004", "con-001", 4, true)

	max, err = repo.MaxVersion("con-001")
	require.NoError(t, err)
	assert.Equal(t, 4, max)
}

// TestDocumentVersionRepository_ClearCurrent 测试清除当前版本标记
func TestDocumentVersionRepository_ClearCurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentVersionRepository(db)

	saveVersion(t, repo, "ver-001", "con-001", 1, true)
	saveVersion(t, repo, "ver-100", "con-002", 1, true)

	err := repo.ClearCurrent("con-001")
	require.NoError(t, err)

	current, err := repo.FindCurrent("con-001")
	require.NoError(t, err)
	assert.Nil(t, current)

	// 其他合同的当前标记不受影响
	current, err = repo.FindCurrent("con-002")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "ver-100", current.ID)
}

// TestContractRepository_SaveAndFind 测试合同保存与查询
func TestContractRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewContractRepository(db)

	contract := &model.Contract{
		ID:             "con-001",
		ContractNumber: "CON-2025-0001",
		TemplateID:     "tpl-001",
		CompanyID:      "comp-001",
		Content:        "contenido",
		Status:         model.ContractStatusGenerated,
	}
	require.NoError(t, repo.Save(contract))

	found, err := repo.FindByID("con-001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "CON-2025-0001", found.ContractNumber)

	byNumber, err := repo.FindByNumber("CON-2025-0001")
	require.NoError(t, err)
	require.NotNil(t, byNumber)
	assert.Equal(t, "con-001", byNumber.ID)

	missing, err := repo.FindByID("con-999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestContractRepository_FindAll 测试合同分页与公司过滤
func TestContractRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewContractRepository(db)

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.Save(&model.Contract{
			ID:             "con-00" + string(rune(i+'0')),
			ContractNumber: model.FormatContractNumber("2025", int64(i)),
			TemplateID:     "tpl-001",
			CompanyID:      "comp-001",
			Status:         model.ContractStatusGenerated,
		}))
	}
	require.NoError(t, repo.Save(&model.Contract{
		ID:             "con-100",
		ContractNumber: "CON-2025-0100",
		TemplateID:     "tpl-001",
		CompanyID:      "comp-002",
		Status:         model.ContractStatusGenerated,
	}))

	contracts, total, err := repo.FindAll("comp-001", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, contracts, 2)

	all, total, err := repo.FindAll("", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)
}

// TestTemplateRepository_FieldRoundTrip 测试模板字段定义的存取
func TestTemplateRepository_FieldRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	tpl := &model.Template{
		ID:        "tpl-001",
		CompanyID: "comp-001",
		Name:      "arrendamiento",
		Content:   "Hola {{nombre}}",
	}
	require.NoError(t, tpl.SetFieldSpecs([]model.FieldSpec{
		{Name: "nombre", Label: "Nombre", Required: true},
	}))
	require.NoError(t, repo.Save(tpl))

	found, err := repo.FindByID("tpl-001")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.FindByID("tpl-999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	fields, err := found.FieldSpecs()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "nombre", fields[0].Name)
	assert.True(t, fields[0].Required)
}
