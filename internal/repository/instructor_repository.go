package repository

import (
	"time"

	"vocal_eval_backend/internal/model"

	"gorm.io/gorm"
)

type InstructorRepository struct {
	DB *gorm.DB
}

func NewInstructorRepository(db *gorm.DB) *InstructorRepository {
	return &InstructorRepository{DB: db}
}

func (r *InstructorRepository) Create(instructor *model.Instructor) error {
	return r.DB.Create(instructor).Error
}

func (r *InstructorRepository) FindByID(id string) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.DB.First(&instructor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *InstructorRepository) FindByEmail(email string) (*model.Instructor, error) {
	var instructor model.Instructor
	err := r.DB.Where("email = ?", email).First(&instructor).Error
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *InstructorRepository) Update(instructor *model.Instructor) error {
	return r.DB.Save(instructor).Error
}

func (r *InstructorRepository) UpdateLastLogin(id string) error {
	return r.DB.Model(&model.Instructor{}).Where("id = ?", id).Update("last_login", time.Now()).Error
}

func (r *InstructorRepository) List() ([]model.Instructor, error) {
	var instructors []model.Instructor
	err := r.DB.Where("is_active = ?", true).Order("name asc").Find(&instructors).Error
	return instructors, err
}
