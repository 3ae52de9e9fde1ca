package model

// Evaluation 一位导师对一次录像的四维评分（各 0-10）与评语
// swagger:model Evaluation
type Evaluation struct {
	UUIDBase
	VideoRecordID string `gorm:"index;type:varchar(36);not null" json:"videoRecordId"`
	StudentID     string `gorm:"index;type:varchar(36);not null" json:"studentId"`
	InstructorID  string `gorm:"index;type:varchar(36);not null" json:"instructorId"`

	Pitch      int `gorm:"not null" json:"pitch"`      // 音准
	Rhythm     int `gorm:"not null" json:"rhythm"`     // 节奏
	Expression int `gorm:"not null" json:"expression"` // 表现力
	Technique  int `gorm:"not null" json:"technique"`  // 技巧

	PitchComment      string `gorm:"type:text" json:"pitchComment"`
	RhythmComment     string `gorm:"type:text" json:"rhythmComment"`
	ExpressionComment string `gorm:"type:text" json:"expressionComment"`
	TechniqueComment  string `gorm:"type:text" json:"techniqueComment"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}
