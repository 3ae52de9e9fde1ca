package repository

import (
	"errors"
	"time"

	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/util"

	"gorm.io/gorm"
)

type ReportRepository struct {
	DB *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{DB: db}
}

func (r *ReportRepository) Create(report *model.ReportGeneration) error {
	return r.DB.Create(report).Error
}

func (r *ReportRepository) FindByID(id string) (*model.ReportGeneration, error) {
	var report model.ReportGeneration
	err := r.DB.First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// FindLatestByVideoRecord 返回某次录像最近一次指定状态的生成尝试，
// 不传状态时返回最近一次任意状态的尝试。
func (r *ReportRepository) FindLatestByVideoRecord(videoRecordID string, statuses ...model.ReportStatus) (*model.ReportGeneration, error) {
	query := r.DB.Where("video_record_id = ?", videoRecordID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var report model.ReportGeneration
	err := query.Order("created_at desc").First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) List(studentID string, status model.ReportStatus, limit int) ([]model.ReportGeneration, error) {
	query := r.DB.Model(&model.ReportGeneration{})
	if studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []model.ReportGeneration
	err := query.Order("created_at desc").Find(&reports).Error
	return reports, err
}

// MarkCompleted 仅允许从 processing 进入 completed。
// 条件更新命中 0 行说明尝试已处于终态（重复回调），返回错误让调用方暴露问题。
func (r *ReportRepository) MarkCompleted(id, pdfURL, pdfFileName string) (*model.ReportGeneration, error) {
	now := time.Now()
	result := r.DB.Model(&model.ReportGeneration{}).
		Where("id = ? AND status = ?", id, model.ReportProcessing).
		Updates(map[string]interface{}{
			"status":        model.ReportCompleted,
			"pdf_url":       pdfURL,
			"pdf_file_name": pdfFileName,
			"completed_at":  now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, util.ErrReportNotProcessing
	}
	return r.FindByID(id)
}

// MarkFailed 仅允许从 processing 进入 failed，约束同 MarkCompleted。
func (r *ReportRepository) MarkFailed(id, errorMessage string) (*model.ReportGeneration, error) {
	now := time.Now()
	result := r.DB.Model(&model.ReportGeneration{}).
		Where("id = ? AND status = ?", id, model.ReportProcessing).
		Updates(map[string]interface{}{
			"status":        model.ReportFailed,
			"error_message": errorMessage,
			"completed_at":  now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, util.ErrReportNotProcessing
	}
	return r.FindByID(id)
}
