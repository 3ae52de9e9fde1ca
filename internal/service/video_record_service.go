package service

import (
	"errors"
	"time"

	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/util"

	"gorm.io/gorm"
)

type VideoRecordService struct {
	Repo        *repository.VideoRecordRepository
	StudentRepo *repository.StudentRepository
}

func NewVideoRecordService(repo *repository.VideoRecordRepository, studentRepo *repository.StudentRepository) *VideoRecordService {
	return &VideoRecordService{Repo: repo, StudentRepo: studentRepo}
}

type VideoRecordReq struct {
	StudentID  string `json:"studentId" binding:"required"`
	SongID     string `json:"songId"`
	SongTitle  string `json:"songTitle" binding:"required"`
	VideoURL   string `json:"videoUrl"`
	RecordedAt string `json:"recordedAt" binding:"required"` // YYYY-MM-DD
}

func (s *VideoRecordService) Register(req VideoRecordReq) (*model.VideoRecord, error) {
	if _, err := s.StudentRepo.FindByID(req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}

	recordedAt, err := time.Parse("2006-01-02", req.RecordedAt)
	if err != nil {
		return nil, err
	}

	record := &model.VideoRecord{
		StudentID:  req.StudentID,
		SongID:     req.SongID,
		SongTitle:  req.SongTitle,
		VideoURL:   req.VideoURL,
		RecordedAt: recordedAt,
	}
	if err := s.Repo.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *VideoRecordService) Get(id string) (*model.VideoRecord, error) {
	record, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrVideoRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *VideoRecordService) ListByStudent(studentID string) ([]repository.VideoRecordListRow, error) {
	return s.Repo.ListByStudent(studentID)
}
