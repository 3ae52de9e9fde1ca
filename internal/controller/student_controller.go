package controller

import (
	"errors"
	"strconv"

	"vocal_eval_backend/internal/service"
	"vocal_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudentController struct {
	Service *service.StudentService
}

func NewStudentController(svc *service.StudentService) *StudentController {
	return &StudentController{Service: svc}
}

// @Summary 登记学生
// @Tags 学生模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.StudentReq true "学生信息"
// @Success 201 {object} util.Response
// @Router /api/students [post]
func (c *StudentController) Register(ctx *gin.Context) {
	var req service.StudentReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	student, err := c.Service.Register(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, student)
}

// @Summary 学生列表
// @Tags 学生模块
// @Produce json
// @Security ApiKeyAuth
// @Param keyword query string false "姓名关键字"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response
// @Router /api/students [get]
func (c *StudentController) Search(ctx *gin.Context) {
	keyword := ctx.Query("keyword")
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	students, total, err := c.Service.Search(keyword, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"items": students, "total": total})
}

// @Summary 学生详情
// @Tags 学生模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/students/{id} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	student, err := c.Service.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, student)
}
