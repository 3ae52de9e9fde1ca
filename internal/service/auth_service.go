package service

import (
	"errors"

	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	InstructorRepo *repository.InstructorRepository
	Cfg            *config.Config
}

func NewAuthService(instructorRepo *repository.InstructorRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		InstructorRepo: instructorRepo,
		Cfg:            cfg,
	}
}

func (s *AuthService) Register(instructor *model.Instructor) error {
	_, err := s.InstructorRepo.FindByEmail(instructor.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(instructor.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	instructor.Password = string(hashedPassword)
	return s.InstructorRepo.Create(instructor)
}

func (s *AuthService) Login(email, password string) (string, error) {
	instructor, err := s.InstructorRepo.FindByEmail(email)
	if err != nil {
		return "", util.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(instructor.Password), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}

	if err := s.InstructorRepo.UpdateLastLogin(instructor.ID); err != nil {
		return "", err
	}

	return util.GenerateJWT(instructor, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}
