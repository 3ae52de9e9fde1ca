package service

import (
	"context"
	"encoding/json"
	"time"

	"vocal_eval_backend/internal/model"
	"vocal_eval_backend/internal/repository"
	"vocal_eval_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const profileCacheTTL = 10 * time.Minute

// InstructorService 导师档案的读穿缓存：Redis 带 TTL，
// 更新档案时显式失效，避免全局可变状态。
type InstructorService struct {
	Repo *repository.InstructorRepository
	RDB  *redis.Client
}

func NewInstructorService(repo *repository.InstructorRepository, rdb *redis.Client) *InstructorService {
	return &InstructorService{Repo: repo, RDB: rdb}
}

func profileCacheKey(id string) string {
	return "instructor:profile:" + id
}

func (s *InstructorService) GetProfile(ctx context.Context, id string) (*model.Instructor, error) {
	if s.RDB != nil {
		if cached, err := s.RDB.Get(ctx, profileCacheKey(id)).Result(); err == nil {
			var instructor model.Instructor
			if err := json.Unmarshal([]byte(cached), &instructor); err == nil {
				return &instructor, nil
			}
		}
	}

	instructor, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if s.RDB != nil {
		if data, err := json.Marshal(instructor); err == nil {
			if err := s.RDB.Set(ctx, profileCacheKey(id), data, profileCacheTTL).Err(); err != nil {
				logger.Log.Warn("profile cache write failed", zap.String("instructorId", id), zap.Error(err))
			}
		}
	}

	return instructor, nil
}

type ProfileUpdateReq struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
}

func (s *InstructorService) UpdateProfile(ctx context.Context, id string, req ProfileUpdateReq) (*model.Instructor, error) {
	instructor, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		instructor.Name = *req.Name
	}
	if req.Specialty != nil {
		instructor.Specialty = *req.Specialty
	}

	if err := s.Repo.Update(instructor); err != nil {
		return nil, err
	}

	if s.RDB != nil {
		if err := s.RDB.Del(ctx, profileCacheKey(id)).Err(); err != nil {
			logger.Log.Warn("profile cache invalidation failed", zap.String("instructorId", id), zap.Error(err))
		}
	}

	return instructor, nil
}

func (s *InstructorService) List() ([]model.Instructor, error) {
	return s.Repo.List()
}
