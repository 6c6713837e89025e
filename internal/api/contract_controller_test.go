package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hectronix2005/Legalbot-sub003/internal/api"
	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/docgen"
	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/hectronix2005/Legalbot-sub003/internal/service"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestRouter 创建绑定真实服务的测试路由
func setupTestRouter(t *testing.T) *gin.Engine {
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

	templateSvc := service.NewTemplateService(templateRepo, store, nil)
	contractSvc := service.NewContractService(
		contractRepo, versionRepo, templateRepo, sequenceRepo,
		pipeline, store, nil,
	)

	templateController := api.NewTemplateController(templateSvc)
	contractController := api.NewContractController(contractSvc)

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/templates", templateController.Create)
		v1.GET("/templates", templateController.List)
		v1.POST("/contracts/generate", contractController.Generate)
		v1.GET("/contracts/:id", contractController.Get)
		v1.POST("/contracts/:id/versions", contractController.SaveEdit)
		v1.GET("/contracts/:id/versions", contractController.ListVersions)
		v1.POST("/versions/:id/restore", contractController.Restore)
	}

	return router
}

// postJSON 发送 JSON 请求并解析统一响应
func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

// createTestTemplate 通过 API 创建测试模板,返回模板 ID
func createTestTemplate(t *testing.T, router *gin.Engine) string {
	w, resp := postJSON(t, router, "/api/v1/templates", map[string]interface{}{
		"company_id": "comp-001",
		"name":       "arrendamiento",
		"content":    "Hola {{nombre}}, debes {{monto}}",
		"fields": []map[string]interface{}{
			{"name": "nombre", "label": "Nombre", "required": true},
			{"name": "monto", "label": "Monto", "required": true},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	return data["ID"].(string)
}

// TestContractAPI_Generate 测试生成合同接口
func TestContractAPI_Generate(t *testing.T) {
	router := setupTestRouter(t)
	templateID := createTestTemplate(t, router)

	w, resp := postJSON(t, router, "/api/v1/contracts/generate", map[string]interface{}{
		"template_id": templateID,
		"answers":     map[string]string{"nombre": "Ana", "monto": "100"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["code"])

	data := resp["data"].(map[string]interface{})
	contract := data["contract"].(map[string]interface{})
	assert.Equal(t, "Hola Ana, debes 100", contract["Content"])
	assert.False(t, data["degraded"].(bool))
}

// TestContractAPI_Generate_MissingFields 测试必填字段缺失返回 400
func TestContractAPI_Generate_MissingFields(t *testing.T) {
	router := setupTestRouter(t)
	templateID := createTestTemplate(t, router)

	w, resp := postJSON(t, router, "/api/v1/contracts/generate", map[string]interface{}{
		"template_id": templateID,
		"answers":     map[string]string{"nombre": "Ana"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing required fields", resp["message"])
	assert.Contains(t, resp["detail"], "Monto")
}

// TestContractAPI_Generate_TemplateNotFound 测试模板不存在返回 404
func TestContractAPI_Generate_TemplateNotFound(t *testing.T) {
	router := setupTestRouter(t)

	w, _ := postJSON(t, router, "/api/v1/contracts/generate", map[string]interface{}{
		"template_id": "tpl-999",
		"answers":     map[string]string{},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestContractAPI_EditAndRestore 测试编辑与恢复接口
func TestContractAPI_EditAndRestore(t *testing.T) {
	router := setupTestRouter(t)
	templateID := createTestTemplate(t, router)

	_, resp := postJSON(t, router, "/api/v1/contracts/generate", map[string]interface{}{
		"template_id": templateID,
		"answers":     map[string]string{"nombre": "Ana", "monto": "100"},
	})
	data := resp["data"].(map[string]interface{})
	contractID := data["contract"].(map[string]interface{})["ID"].(string)
	versionID := data["version"].(map[string]interface{})["ID"].(string)

	// 编辑生成第 2 版
	w, resp := postJSON(t, router, "/api/v1/contracts/"+contractID+"/versions", map[string]interface{}{
		"content":            "Hola Ana, debes 200",
		"change_description": "monto corregido",
	})
	require.Equal(t, http.StatusOK, w.Code)
	edited := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), edited["Version"])

	// 恢复第 1 版生成第 3 版
	w, resp = postJSON(t, router, "/api/v1/versions/"+versionID+"/restore", map[string]interface{}{})
	require.Equal(t, http.StatusOK, w.Code)
	restored := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), restored["Version"])
	assert.Equal(t, "Hola Ana, debes 100", restored["Content"])

	// 版本列表倒序返回 3 条
	wGet := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/"+contractID+"/versions", nil)
	router.ServeHTTP(wGet, req)
	require.Equal(t, http.StatusOK, wGet.Code)

	var listResp map[string]interface{}
	require.NoError(t, json.Unmarshal(wGet.Body.Bytes(), &listResp))
	versions := listResp["data"].([]interface{})
	require.Len(t, versions, 3)
	assert.Equal(t, float64(3), versions[0].(map[string]interface{})["Version"])
}

// TestContractAPI_InvalidID 测试非法 ID 返回 400
func TestContractAPI_InvalidID(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/not%20valid!", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
