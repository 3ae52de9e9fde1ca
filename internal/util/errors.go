package util

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest       = errors.New("videoRecordId is required")
	ErrInvalidStatus        = errors.New("invalid status value, must be completed or failed")
	ErrNoProcessingReport   = errors.New("no processing report found for videoRecordId")
	ErrGenerationInProgress = errors.New("report generation already in progress for this video record")
	ErrReportNotProcessing  = errors.New("report is no longer in processing status")
	ErrReportNotFound       = errors.New("report not found")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrStudentNotFound      = errors.New("student not found")
	ErrVideoRecordNotFound  = errors.New("video record not found")
	ErrScoreOutOfRange      = errors.New("score must be between 0 and 10")
)

// InsufficientEvaluationsError 评价数量未达到生成门槛，携带实际/要求数量供前端展示
type InsufficientEvaluationsError struct {
	Got      int
	Required int
}

func (e *InsufficientEvaluationsError) Error() string {
	return fmt.Sprintf("need exactly %d evaluations, but got %d", e.Required, e.Got)
}
