package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hectronix2005/Legalbot-sub003/internal/service"
	"github.com/hectronix2005/Legalbot-sub003/internal/utils"
)

// TemplateController 模板控制器
type TemplateController struct {
	templateService service.TemplateService
}

// NewTemplateController 创建模板控制器
func NewTemplateController(templateService service.TemplateService) *TemplateController {
	return &TemplateController{
		templateService: templateService,
	}
}

// Create 创建模板
// @Summary      创建模板
// @Description  创建合同模板,字段定义顺序即占位符替换顺序
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTemplateRequest true "模板信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /templates [post]
// @Security    BearerAuth
func (c *TemplateController) Create(ctx *gin.Context) {
	var req service.CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	if err := utils.ValidateName(req.Name); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template name", err.Error())
		return
	}

	tpl, err := c.templateService.Create(ctx.Request.Context(), &req)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to create template", err.Error())
		return
	}

	Success(ctx, tpl)
}

// Get 获取模板详情
// @Summary      获取模板详情
// @Description  根据 ID 获取模板详情
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [get]
// @Security    BearerAuth
func (c *TemplateController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template ID", err.Error())
		return
	}

	tpl, err := c.templateService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			Error(ctx, http.StatusNotFound, "template not found", err.Error())
		} else {
			Error(ctx, http.StatusInternalServerError, "failed to get template", err.Error())
		}
		return
	}

	Success(ctx, tpl)
}

// List 分页查询模板列表
// @Summary      查询模板列表
// @Description  分页查询模板,支持按公司过滤
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        company_id query string false "公司 ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /templates [get]
// @Security    BearerAuth
func (c *TemplateController) List(ctx *gin.Context) {
	companyID := ctx.Query("company_id")
	page, pageSize := parsePagination(ctx)

	templates, total, err := c.templateService.List(companyID, page, pageSize)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list templates", err.Error())
		return
	}

	Paginated(ctx, templates, PaginationInfo{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPages(total, pageSize),
	})
}

// Delete 删除模板
// @Summary      删除模板
// @Description  根据 ID 删除模板,已生成的合同不受影响
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [delete]
// @Security    BearerAuth
func (c *TemplateController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template ID", err.Error())
		return
	}

	if err := c.templateService.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			Error(ctx, http.StatusNotFound, "template not found", err.Error())
		} else {
			Error(ctx, http.StatusInternalServerError, "failed to delete template", err.Error())
		}
		return
	}

	Success(ctx, gin.H{"deleted": id})
}

// UploadSource 上传模板的原始 DOCX 文件
// @Summary      上传原始模板文件
// @Description  上传 DOCX 原始文件,之后基于该模板生成合同时保留原始排版
// @Tags         模板管理
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        file formData file true "DOCX 文件"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/source [post]
// @Security    BearerAuth
func (c *TemplateController) UploadSource(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid template ID", err.Error())
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		Error(ctx, http.StatusBadRequest, "failed to read file", err.Error())
		return
	}
	defer file.Close()

	tpl, err := c.templateService.AttachSource(ctx.Request.Context(), id, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			Error(ctx, http.StatusNotFound, "template not found", err.Error())
		} else {
			Error(ctx, http.StatusBadRequest, "failed to attach source document", err.Error())
		}
		return
	}

	Success(ctx, tpl)
}
