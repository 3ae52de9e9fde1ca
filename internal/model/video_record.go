package model

import (
	"time"
)

// VideoRecord 学生的一次演唱录像，评价与报告都以它为单位
// swagger:model VideoRecord
type VideoRecord struct {
	UUIDBase
	StudentID  string    `gorm:"index;type:varchar(36);not null" json:"studentId"`
	SongID     string    `gorm:"size:64" json:"songId"`
	SongTitle  string    `gorm:"size:255;not null" json:"songTitle"`
	VideoURL   string    `gorm:"size:512" json:"videoUrl"`
	RecordedAt time.Time `json:"recordedAt"`
}

func (VideoRecord) TableName() string {
	return "video_records"
}
