package controller

import (
	"errors"
	"strconv"

	"vocal_eval_backend/internal/service"
	"vocal_eval_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	Service *service.ReportService
}

func NewReportController(svc *service.ReportService) *ReportController {
	return &ReportController{Service: svc}
}

type GenerateReportReq struct {
	VideoRecordID string `json:"videoRecordId"`
}

// @Summary 发起报告生成
// @Description 评价数满 10 条后触发外部生成器，立即返回 processing 状态的尝试
// @Tags 报告模块
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body GenerateReportReq true "录像ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/reports/generate [post]
func (c *ReportController) Generate(ctx *gin.Context) {
	instructor := util.GetInstructorFromContext(ctx)
	if instructor == nil {
		util.Unauthorized(ctx)
		return
	}

	var req GenerateReportReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	report, err := c.Service.StartGeneration(ctx.Request.Context(), req.VideoRecordID)
	if err != nil {
		var insufficient *util.InsufficientEvaluationsError
		switch {
		case errors.Is(err, util.ErrInvalidRequest):
			util.BadRequest(ctx, err.Error())
		case errors.As(err, &insufficient):
			util.BadRequest(ctx, insufficient.Error())
		case errors.Is(err, util.ErrGenerationInProgress):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"reportId": report.ID, "status": report.Status})
}

// @Summary 查询报告生成状态
// @Tags 报告模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "报告ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/reports/{id} [get]
func (c *ReportController) GetStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	report, err := c.Service.GetReport(id)
	if err != nil {
		if errors.Is(err, util.ErrReportNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// @Summary 报告生成历史
// @Tags 报告模块
// @Produce json
// @Security ApiKeyAuth
// @Param studentId query string false "学生ID"
// @Param status query string false "状态"
// @Param limit query int false "数量上限" default(50)
// @Success 200 {object} util.Response
// @Router /api/reports [get]
func (c *ReportController) List(ctx *gin.Context) {
	studentID := ctx.Query("studentId")
	status := ctx.Query("status")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	reports, err := c.Service.ListReports(studentID, status, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, reports)
}

// @Summary 录像的最新报告
// @Tags 报告模块
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "录像ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/video-records/{id}/report [get]
func (c *ReportController) LatestByVideoRecord(ctx *gin.Context) {
	id := ctx.Param("id")

	report, err := c.Service.LatestByVideoRecord(id)
	if err != nil {
		if errors.Is(err, util.ErrReportNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, report)
}

// @Summary 生成器完成回调
// @Description 外部生成器通知结果，推进最近一次 processing 尝试到终态
// @Tags 报告模块
// @Accept json
// @Produce json
// @Param body body service.CallbackRequest true "回调内容"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/webhook/report-completed [post]
func (c *ReportController) Callback(ctx *gin.Context) {
	var req service.CallbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	report, err := c.Service.HandleCallback(ctx.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidRequest), errors.Is(err, util.ErrInvalidStatus):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrNoProcessingReport):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrReportNotProcessing):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"success":  true,
		"reportId": report.ID,
		"status":   report.Status,
		"pdfUrl":   report.PDFURL,
	})
}
