package repository

import (
	"vocal_eval_backend/internal/model"

	"gorm.io/gorm"
)

type EvaluationRepository struct {
	DB *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{DB: db}
}

func (r *EvaluationRepository) Create(evaluation *model.Evaluation) error {
	return r.DB.Create(evaluation).Error
}

func (r *EvaluationRepository) FindByID(id string) (*model.Evaluation, error) {
	var e model.Evaluation
	err := r.DB.First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EvaluationRepository) CountByVideoRecord(videoRecordID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Evaluation{}).Where("video_record_id = ?", videoRecordID).Count(&count).Error
	return count, err
}

// ListByVideoRecord 按创建时间升序返回某次录像的全部评价
func (r *EvaluationRepository) ListByVideoRecord(videoRecordID string) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	err := r.DB.Where("video_record_id = ?", videoRecordID).Order("created_at asc").Find(&evaluations).Error
	return evaluations, err
}

func (r *EvaluationRepository) ListByInstructor(instructorID string, page, limit int) ([]model.Evaluation, int64, error) {
	var total int64
	query := r.DB.Model(&model.Evaluation{}).Where("instructor_id = ?", instructorID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var evaluations []model.Evaluation
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&evaluations).Error
	return evaluations, total, err
}

type ScoreAverages struct {
	Pitch      float64 `json:"pitch"`
	Rhythm     float64 `json:"rhythm"`
	Expression float64 `json:"expression"`
	Technique  float64 `json:"technique"`
}

func (r *EvaluationRepository) AverageScoresByStudent(studentID string) (*ScoreAverages, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Evaluation{}).Where("student_id = ?", studentID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var avg ScoreAverages
	if total == 0 {
		return &avg, 0, nil
	}

	err := r.DB.Model(&model.Evaluation{}).
		Select("AVG(pitch) as pitch, AVG(rhythm) as rhythm, AVG(expression) as expression, AVG(technique) as technique").
		Where("student_id = ?", studentID).
		Scan(&avg).Error
	return &avg, total, err
}
