package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hectronix2005/Legalbot-sub003/internal/render"
	"github.com/hectronix2005/Legalbot-sub003/internal/service"
	"github.com/hectronix2005/Legalbot-sub003/internal/utils"
)

// ContractController 合同控制器
type ContractController struct {
	contractService service.ContractService
}

// NewContractController 创建合同控制器
func NewContractController(contractService service.ContractService) *ContractController {
	return &ContractController{
		contractService: contractService,
	}
}

// validateResourceID 验证资源 ID 并返回错误响应（如果无效）
func (c *ContractController) validateResourceID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid resource ID", err.Error())
		return false
	}
	return true
}

// Generate 生成合同
// @Summary      生成合同
// @Description  基于模板和字段答案生成合同,分配唯一编号并产出 DOCX/PDF 文件
// @Tags         合同管理
// @Accept       json
// @Produce      json
// @Param        request body service.GenerateContractRequest true "生成参数"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /contracts/generate [post]
// @Security    BearerAuth
func (c *ContractController) Generate(ctx *gin.Context) {
	var req service.GenerateContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.contractService.Generate(ctx.Request.Context(), &req)
	if err != nil {
		var validationErr *render.ValidationError
		switch {
		case errors.As(err, &validationErr):
			Error(ctx, http.StatusBadRequest, "missing required fields", validationErr.Error())
		case errors.Is(err, service.ErrTemplateNotFound):
			Error(ctx, http.StatusNotFound, "template not found", err.Error())
		default:
			Error(ctx, http.StatusInternalServerError, "failed to generate contract", err.Error())
		}
		return
	}

	Success(ctx, result)
}

// Get 获取合同详情
// @Summary      获取合同详情
// @Description  根据 ID 获取合同详情
// @Tags         合同管理
// @Accept       json
// @Produce      json
// @Param        id path string true "合同 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contracts/{id} [get]
// @Security    BearerAuth
func (c *ContractController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateResourceID(ctx, id) {
		return
	}

	contract, err := c.contractService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrContractNotFound) {
			Error(ctx, http.StatusNotFound, "contract not found", err.Error())
		} else {
			Error(ctx, http.StatusInternalServerError, "failed to get contract", err.Error())
		}
		return
	}

	Success(ctx, contract)
}

// List 分页查询合同列表
// @Summary      查询合同列表
// @Description  分页查询合同,支持按公司过滤
// @Tags         合同管理
// @Accept       json
// @Produce      json
// @Param        company_id query string false "公司 ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /contracts [get]
// @Security    BearerAuth
func (c *ContractController) List(ctx *gin.Context) {
	companyID := ctx.Query("company_id")
	page, pageSize := parsePagination(ctx)

	contracts, total, err := c.contractService.List(companyID, page, pageSize)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list contracts", err.Error())
		return
	}

	Paginated(ctx, contracts, PaginationInfo{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages(total, pageSize),
	})
}

// SaveEdit 保存编辑后的正文并生成新版本
// @Summary      保存编辑
// @Description  保存编辑后的完整正文,生成新版本并重新产出文件
// @Tags         版本管理
// @Accept       json
// @Produce      json
// @Param        id path string true "合同 ID"
// @Param        request body service.SaveEditRequest true "编辑内容"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /contracts/{id}/versions [post]
// @Security    BearerAuth
func (c *ContractController) SaveEdit(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateResourceID(ctx, id) {
		return
	}

	var req service.SaveEditRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	version, err := c.contractService.SaveEdit(ctx.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrContractNotFound) {
			Error(ctx, http.StatusNotFound, "contract not found", err.Error())
		} else {
			Error(ctx, http.StatusInternalServerError, "failed to save edit", err.Error())
		}
		return
	}

	Success(ctx, version)
}

// ListVersions 查询合同的版本历史
// @Summary      查询版本历史
// @Description  按版本号倒序返回合同的全部版本
// @Tags         版本管理
// @Accept       json
// @Produce      json
// @Param        id path string true "合同 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /contracts/{id}/versions [get]
// @Security    BearerAuth
func (c *ContractController) ListVersions(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateResourceID(ctx, id) {
		return
	}

	versions, err := c.contractService.ListVersions(id)
	if err != nil {
		if errors.Is(err, service.ErrContractNotFound) {
			Error(ctx, http.StatusNotFound, "contract not found", err.Error())
		} else {
			Error(ctx, http.StatusInternalServerError, "failed to list versions", err.Error())
		}
		return
	}

	Success(ctx, versions)
}

// Restore 从历史版本恢复
// @Summary      恢复历史版本
// @Description  把指定历史版本的正文复制到一个新版本并设为当前版本
// @Tags         版本管理
// @Accept       json
// @Produce      json
// @Param        id path string true "版本 ID"
// @Param        request body service.RestoreRequest false "恢复参数"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /versions/{id}/restore [post]
// @Security    BearerAuth
func (c *ContractController) Restore(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateResourceID(ctx, id) {
		return
	}

	var req service.RestoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	version, err := c.contractService.Restore(ctx.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVersionNotFound):
			Error(ctx, http.StatusNotFound, "version not found", err.Error())
		case errors.Is(err, service.ErrContractNotFound):
			Error(ctx, http.StatusNotFound, "contract not found", err.Error())
		default:
			Error(ctx, http.StatusInternalServerError, "failed to restore version", err.Error())
		}
		return
	}

	Success(ctx, version)
}

// Cleanup 清理合同的历史生成文件
// @Summary      清理历史文件
// @Description  每种格式各保留最近 N 个生成文件,删除更早的磁盘文件
// @Tags         合同管理
// @Accept       json
// @Produce      json
// @Param        id path string true "合同 ID"
// @Param        keep query int false "保留数量" default(10)
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /contracts/{id}/retention [post]
// @Security    BearerAuth
func (c *ContractController) Cleanup(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateResourceID(ctx, id) {
		return
	}

	keep, err := strconv.Atoi(ctx.DefaultQuery("keep", "10"))
	if err != nil || keep < 1 {
		Error(ctx, http.StatusBadRequest, "invalid keep parameter", "keep must be a positive integer")
		return
	}

	removed, err := c.contractService.Cleanup(ctx.Request.Context(), id, keep)
	if err != nil {
		if errors.Is(err, service.ErrContractNotFound) {
			Error(ctx, http.StatusNotFound, "contract not found", err.Error())
		} else {
			Error(ctx, http.StatusInternalServerError, "failed to clean up artifacts", err.Error())
		}
		return
	}

	Success(ctx, gin.H{"removed": removed, "keep": keep})
}

// parsePagination 解析分页参数
func parsePagination(ctx *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// totalPages 计算总页数
func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
