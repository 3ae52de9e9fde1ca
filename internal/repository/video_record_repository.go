package repository

import (
	"vocal_eval_backend/internal/model"

	"gorm.io/gorm"
)

type VideoRecordRepository struct {
	DB *gorm.DB
}

func NewVideoRecordRepository(db *gorm.DB) *VideoRecordRepository {
	return &VideoRecordRepository{DB: db}
}

func (r *VideoRecordRepository) Create(record *model.VideoRecord) error {
	return r.DB.Create(record).Error
}

func (r *VideoRecordRepository) FindByID(id string) (*model.VideoRecord, error) {
	var record model.VideoRecord
	err := r.DB.First(&record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type VideoRecordListRow struct {
	model.VideoRecord
	EvaluationCount int `json:"evaluationCount"`
}

// ListByStudent 附带每条录像已有的评价数量，前端用它判断是否可以发起报告生成
func (r *VideoRecordRepository) ListByStudent(studentID string) ([]VideoRecordListRow, error) {
	var rows []VideoRecordListRow
	err := r.DB.Table("video_records v").
		Select("v.*, (SELECT COUNT(*) FROM evaluations e WHERE e.video_record_id = v.id AND e.deleted_at IS NULL) as evaluation_count").
		Where("v.student_id = ? AND v.deleted_at IS NULL", studentID).
		Order("v.recorded_at desc").
		Scan(&rows).Error
	return rows, err
}
