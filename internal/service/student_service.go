package service

import (
	"errors"

	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/util"

	"gorm.io/gorm"
)

type StudentService struct {
	Repo *repository.StudentRepository
}

func NewStudentService(repo *repository.StudentRepository) *StudentService {
	return &StudentService{Repo: repo}
}

type StudentReq struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Grade string `json:"grade"`
}

func (s *StudentService) Register(req StudentReq) (*model.Student, error) {
	student := &model.Student{
		Name:     req.Name,
		Email:    req.Email,
		Grade:    req.Grade,
		IsActive: true,
	}
	if err := s.Repo.Create(student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) Get(id string) (*model.Student, error) {
	student, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) Search(keyword string, page, limit int) ([]model.Student, int64, error) {
	return s.Repo.Search(keyword, page, limit)
}
