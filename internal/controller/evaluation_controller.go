package controller

import (
	"errors"

	"vocal_eval_backend/internal/service"
	"vocal_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EvaluationController struct {
	Service *service.EvaluationService
}

func NewEvaluationController(svc *service.EvaluationService) *EvaluationController {
	return &EvaluationController{Service: svc}
}

// @Summary 提交评价
// @Description 当前导师对一次录像提交四维评分与评语
// @Tags 评价模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.EvaluationReq true "评价内容"
// @Success 201 {object} util.Response
// @Router /api/evaluations [post]
func (c *EvaluationController) Submit(ctx *gin.Context) {
	instructor := util.GetInstructorFromContext(ctx)
	if instructor == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.EvaluationReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	evaluation, err := c.Service.Submit(instructor.InstructorID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrScoreOutOfRange):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrVideoRecordNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, evaluation)
}

// @Summary 录像的评价列表
// @Tags 评价模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "录像ID"
// @Success 200 {object} util.Response
// @Router /api/video-records/{id}/evaluations [get]
func (c *EvaluationController) ListByVideoRecord(ctx *gin.Context) {
	id := ctx.Param("id")

	evaluations, err := c.Service.ListByVideoRecord(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, evaluations)
}

// @Summary 录像的评价数量
// @Description 前端用它判断是否已凑齐生成报告所需的 10 条评价
// @Tags 评价模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "录像ID"
// @Success 200 {object} util.Response
// @Router /api/video-records/{id}/evaluations/count [get]
func (c *EvaluationController) CountByVideoRecord(ctx *gin.Context) {
	id := ctx.Param("id")

	count, err := c.Service.CountByVideoRecord(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"count": count, "required": util.RequiredEvaluations})
}

// @Summary 学生评分统计
// @Tags 评价模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/students/{id}/evaluation-summary [get]
func (c *EvaluationController) StudentSummary(ctx *gin.Context) {
	id := ctx.Param("id")

	summary, err := c.Service.SummaryByStudent(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}
