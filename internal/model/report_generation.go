package model

import (
	"time"
)

type ReportStatus string

const (
	ReportProcessing ReportStatus = "processing"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

// ReportGeneration 一次报告生成尝试。创建即进入 processing，
// 只有外部生成器的回调能把它推进到终态（completed / failed）。
// swagger:model ReportGeneration
type ReportGeneration struct {
	UUIDBase
	VideoRecordID       string       `gorm:"index;type:varchar(36);not null" json:"videoRecordId"`
	StudentID           string       `gorm:"index;type:varchar(36);not null" json:"studentId"`
	Status              ReportStatus `gorm:"size:20;not null;default:'processing'" json:"status"`
	TotalEvaluations    int          `gorm:"not null" json:"totalEvaluations"`
	RequiredEvaluations int          `gorm:"not null" json:"requiredEvaluations"`
	PDFURL              string       `gorm:"size:512" json:"pdfUrl"`
	PDFFileName         string       `gorm:"size:255" json:"pdfFileName"`
	ErrorMessage        string       `gorm:"type:text" json:"errorMessage"`
	CompletedAt         *time.Time   `json:"completedAt"`
}

func (ReportGeneration) TableName() string {
	return "report_generations"
}

func (r *ReportGeneration) IsTerminal() bool {
	return r.Status == ReportCompleted || r.Status == ReportFailed
}
