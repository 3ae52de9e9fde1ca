package controller

import (
	"errors"

	"vocal_eval_backend/internal/service"
	"vocal_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VideoRecordController struct {
	Service *service.VideoRecordService
}

func NewVideoRecordController(svc *service.VideoRecordService) *VideoRecordController {
	return &VideoRecordController{Service: svc}
}

// @Summary 登记录像
// @Tags 录像模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.VideoRecordReq true "录像信息"
// @Success 201 {object} util.Response
// @Router /api/video-records [post]
func (c *VideoRecordController) Register(ctx *gin.Context) {
	var req service.VideoRecordReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.Service.Register(req)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, record)
}

// @Summary 录像详情
// @Tags 录像模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "录像ID"
// @Success 200 {object} util.Response
// @Router /api/video-records/{id} [get]
func (c *VideoRecordController) Get(ctx *gin.Context) {
	record, err := c.Service.Get(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrVideoRecordNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, record)
}

// @Summary 学生的录像列表
// @Description 附带每条录像当前的评价数量
// @Tags 录像模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/students/{id}/video-records [get]
func (c *VideoRecordController) ListByStudent(ctx *gin.Context) {
	rows, err := c.Service.ListByStudent(ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, rows)
}
