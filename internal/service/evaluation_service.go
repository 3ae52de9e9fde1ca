package service

import (
	"errors"

	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/util"

	"gorm.io/gorm"
)

type EvaluationService struct {
	EvalRepo        *repository.EvaluationRepository
	VideoRecordRepo *repository.VideoRecordRepository
}

func NewEvaluationService(evalRepo *repository.EvaluationRepository, videoRecordRepo *repository.VideoRecordRepository) *EvaluationService {
	return &EvaluationService{EvalRepo: evalRepo, VideoRecordRepo: videoRecordRepo}
}

type EvaluationReq struct {
	VideoRecordID     string `json:"videoRecordId" binding:"required"`
	Pitch             *int   `json:"pitch" binding:"required"`
	Rhythm            *int   `json:"rhythm" binding:"required"`
	Expression        *int   `json:"expression" binding:"required"`
	Technique         *int   `json:"technique" binding:"required"`
	PitchComment      string `json:"pitchComment"`
	RhythmComment     string `json:"rhythmComment"`
	ExpressionComment string `json:"expressionComment"`
	TechniqueComment  string `json:"techniqueComment"`
}

// Submit 导师提交一次四维评分。学生 ID 从录像反查，
// 评价创建后不再修改（发送给生成器的数据以提交时为准）。
func (s *EvaluationService) Submit(instructorID string, req EvaluationReq) (*model.Evaluation, error) {
	for _, score := range []int{*req.Pitch, *req.Rhythm, *req.Expression, *req.Technique} {
		if score < util.ScoreMin || score > util.ScoreMax {
			return nil, util.ErrScoreOutOfRange
		}
	}

	record, err := s.VideoRecordRepo.FindByID(req.VideoRecordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrVideoRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	evaluation := &model.Evaluation{
		VideoRecordID:     req.VideoRecordID,
		StudentID:         record.StudentID,
		InstructorID:      instructorID,
		Pitch:             *req.Pitch,
		Rhythm:            *req.Rhythm,
		Expression:        *req.Expression,
		Technique:         *req.Technique,
		PitchComment:      req.PitchComment,
		RhythmComment:     req.RhythmComment,
		ExpressionComment: req.ExpressionComment,
		TechniqueComment:  req.TechniqueComment,
	}

	if err := s.EvalRepo.Create(evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

func (s *EvaluationService) CountByVideoRecord(videoRecordID string) (int64, error) {
	return s.EvalRepo.CountByVideoRecord(videoRecordID)
}

func (s *EvaluationService) ListByVideoRecord(videoRecordID string) ([]model.Evaluation, error) {
	return s.EvalRepo.ListByVideoRecord(videoRecordID)
}

type StudentSummary struct {
	TotalEvaluations int64                    `json:"totalEvaluations"`
	AverageScores    repository.ScoreAverages `json:"averageScores"`
}

func (s *EvaluationService) SummaryByStudent(studentID string) (*StudentSummary, error) {
	avg, total, err := s.EvalRepo.AverageScoresByStudent(studentID)
	if err != nil {
		return nil, err
	}
	return &StudentSummary{TotalEvaluations: total, AverageScores: *avg}, nil
}
