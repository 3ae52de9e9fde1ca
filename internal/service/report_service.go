package service

import (
	"context"
	"errors"
	"fmt"

	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/util"
	"vocal_eval_backend/pkg/logger"
	"vocal_eval_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// ReportService 报告生成协议的状态机。
// 创建尝试由 StartGeneration 独占，终态迁移由 HandleCallback 独占，
// 其余组件（轮询客户端、列表接口）只读。
type ReportService struct {
	ReportRepo      *repository.ReportRepository
	EvalRepo        *repository.EvaluationRepository
	VideoRecordRepo *repository.VideoRecordRepository
	StudentRepo     *repository.StudentRepository
	Generator       *GeneratorService
	Storage         *StorageService
	Cfg             *config.Config
}

func NewReportService(
	reportRepo *repository.ReportRepository,
	evalRepo *repository.EvaluationRepository,
	videoRecordRepo *repository.VideoRecordRepository,
	studentRepo *repository.StudentRepository,
	generator *GeneratorService,
	storage *StorageService,
	cfg *config.Config,
) *ReportService {
	return &ReportService{
		ReportRepo:      reportRepo,
		EvalRepo:        evalRepo,
		VideoRecordRepo: videoRecordRepo,
		StudentRepo:     studentRepo,
		Generator:       generator,
		Storage:         storage,
		Cfg:             cfg,
	}
}

// StartGeneration 为一次录像发起报告生成。
//
// 门槛：评价数必须精确等于 required_evaluations（评审团规模固定）。
// 已有 completed 尝试时直接返回它，不重复生成也不删除历史。
// 已有 processing 尝试时拒绝，保证同一录像同时只有一次在途尝试，
// 回调才能按"最近一次 processing"无歧义地匹配。
//
// 对生成器的投递不阻塞结果：接口立刻返回 processing 的尝试，
// 状态只会被回调推进。
func (s *ReportService) StartGeneration(ctx context.Context, videoRecordID string) (*model.ReportGeneration, error) {
	if videoRecordID == "" {
		return nil, util.ErrInvalidRequest
	}

	count, err := s.EvalRepo.CountByVideoRecord(videoRecordID)
	if err != nil {
		return nil, err
	}

	required := s.requiredEvaluations()
	if int(count) != required {
		return nil, &util.InsufficientEvaluationsError{Got: int(count), Required: required}
	}

	if existing, err := s.ReportRepo.FindLatestByVideoRecord(videoRecordID, model.ReportCompleted); err == nil {
		logger.Log.Info("completed report already exists, returning it",
			zap.String("videoRecordId", videoRecordID),
			zap.String("reportId", existing.ID))
		return existing, nil
	} else if !errors.Is(err, util.ErrReportNotFound) {
		return nil, err
	}

	if _, err := s.ReportRepo.FindLatestByVideoRecord(videoRecordID, model.ReportProcessing); err == nil {
		return nil, util.ErrGenerationInProgress
	} else if !errors.Is(err, util.ErrReportNotFound) {
		return nil, err
	}

	evaluations, err := s.EvalRepo.ListByVideoRecord(videoRecordID)
	if err != nil {
		return nil, err
	}

	// 同一录像的评价应当指向同一学生，以第一条为准
	studentID := evaluations[0].StudentID
	for _, e := range evaluations {
		if e.StudentID != studentID {
			logger.Log.Warn("evaluation student mismatch",
				zap.String("videoRecordId", videoRecordID),
				zap.String("evaluationId", e.ID),
				zap.String("expected", studentID),
				zap.String("got", e.StudentID))
		}
	}

	report := &model.ReportGeneration{
		VideoRecordID:       videoRecordID,
		StudentID:           studentID,
		Status:              model.ReportProcessing,
		TotalEvaluations:    int(count),
		RequiredEvaluations: required,
	}
	if err := s.ReportRepo.Create(report); err != nil {
		return nil, err
	}

	payload := s.buildPayload(videoRecordID, studentID, evaluations)
	if err := s.Generator.Dispatch(ctx, payload); err != nil {
		// 生成器传输层报错时任务仍可能在执行，状态留在 processing 等回调
		logger.Log.Warn("generator dispatch failed, report stays processing",
			zap.String("reportId", report.ID),
			zap.String("videoRecordId", videoRecordID),
			zap.Error(err))
	}

	monitoring.ReportGenerationCounter.WithLabelValues("started").Inc()
	logger.Log.Info("report generation started",
		zap.String("reportId", report.ID),
		zap.String("videoRecordId", videoRecordID))

	return report, nil
}

type CallbackRequest struct {
	VideoRecordID string `json:"videoRecordId" binding:"required"`
	Status        string `json:"status" binding:"required"`
	ErrorMessage  string `json:"errorMessage"`
}

// HandleCallback 接收生成器的完成/失败通知，把最近一次 processing
// 尝试推进到终态。找不到在途尝试（未知录像或重复回调）返回
// ErrNoProcessingReport，调用方以 404 暴露，便于监控孤儿回调。
func (s *ReportService) HandleCallback(ctx context.Context, req CallbackRequest) (*model.ReportGeneration, error) {
	if req.VideoRecordID == "" {
		return nil, util.ErrInvalidRequest
	}
	status := model.ReportStatus(req.Status)
	if status != model.ReportCompleted && status != model.ReportFailed {
		return nil, util.ErrInvalidStatus
	}

	report, err := s.ReportRepo.FindLatestByVideoRecord(req.VideoRecordID, model.ReportProcessing)
	if errors.Is(err, util.ErrReportNotFound) {
		monitoring.ReportGenerationCounter.WithLabelValues("orphan_callback").Inc()
		logger.Log.Warn("callback without processing report",
			zap.String("videoRecordId", req.VideoRecordID),
			zap.String("status", req.Status))
		return nil, util.ErrNoProcessingReport
	}
	if err != nil {
		return nil, err
	}

	if status == model.ReportCompleted {
		// 生成器按约定把 PDF 写到固定命名空间，文件名由录像 ID 推导
		fileName := fmt.Sprintf("%s_report.pdf", req.VideoRecordID)
		pdfURL := s.Storage.GetURL(util.ReportStorageNamespace + "/" + fileName)

		updated, err := s.ReportRepo.MarkCompleted(report.ID, pdfURL, fileName)
		if err != nil {
			return nil, err
		}

		monitoring.ReportGenerationCounter.WithLabelValues("completed").Inc()
		logger.Log.Info("report marked as completed",
			zap.String("reportId", updated.ID),
			zap.String("pdfUrl", pdfURL))
		return updated, nil
	}

	message := req.ErrorMessage
	if message == "" {
		message = util.DefaultGenerationError
	}

	updated, err := s.ReportRepo.MarkFailed(report.ID, message)
	if err != nil {
		return nil, err
	}

	monitoring.ReportGenerationCounter.WithLabelValues("failed").Inc()
	logger.Log.Info("report marked as failed",
		zap.String("reportId", updated.ID),
		zap.String("errorMessage", message))
	return updated, nil
}

func (s *ReportService) GetReport(id string) (*model.ReportGeneration, error) {
	return s.ReportRepo.FindByID(id)
}

func (s *ReportService) ListReports(studentID, status string, limit int) ([]model.ReportGeneration, error) {
	return s.ReportRepo.List(studentID, model.ReportStatus(status), limit)
}

func (s *ReportService) LatestByVideoRecord(videoRecordID string) (*model.ReportGeneration, error) {
	return s.ReportRepo.FindLatestByVideoRecord(videoRecordID)
}

func (s *ReportService) requiredEvaluations() int {
	if s.Cfg != nil && s.Cfg.Report.RequiredEvaluations > 0 {
		return s.Cfg.Report.RequiredEvaluations
	}
	return util.RequiredEvaluations
}

// buildPayload 组装生成器期望的载荷。歌曲与学生信息查不到时
// 留空继续投递，评语缺省为空串。
func (s *ReportService) buildPayload(videoRecordID, studentID string, evaluations []model.Evaluation) *GeneratorPayload {
	payload := &GeneratorPayload{
		VideoRecordID: videoRecordID,
		StudentID:     studentID,
		Evaluations:   make([]GeneratorEvaluation, 0, len(evaluations)),
	}

	if record, err := s.VideoRecordRepo.FindByID(videoRecordID); err == nil {
		payload.SongID = record.SongID
		payload.SongTitle = record.SongTitle
	} else {
		logger.Log.Warn("video record lookup failed for payload",
			zap.String("videoRecordId", videoRecordID), zap.Error(err))
	}

	if student, err := s.StudentRepo.FindByID(studentID); err == nil {
		payload.StudentName = student.Name
	} else {
		logger.Log.Warn("student lookup failed for payload",
			zap.String("studentId", studentID), zap.Error(err))
	}

	for _, e := range evaluations {
		payload.Evaluations = append(payload.Evaluations, GeneratorEvaluation{
			JudgeID:           e.InstructorID,
			Pitch:             e.Pitch,
			Rhythm:            e.Rhythm,
			Expression:        e.Expression,
			Technique:         e.Technique,
			PitchComment:      e.PitchComment,
			RhythmComment:     e.RhythmComment,
			ExpressionComment: e.ExpressionComment,
			TechniqueComment:  e.TechniqueComment,
		})
	}

	return payload
}
