package model

import (
	"time"
)

type InstructorRole string

const (
	RoleInstructor InstructorRole = "instructor"
	RoleAdmin      InstructorRole = "admin"
)

// swagger:model Instructor
type Instructor struct {
	UUIDBase
	Name      string         `gorm:"size:100;not null" json:"name"`
	Email     string         `gorm:"size:100;unique;not null" json:"email"`
	Password  string         `gorm:"size:100;not null" json:"-"`
	Role      InstructorRole `gorm:"size:20;default:'instructor'" json:"role"`
	Specialty string         `gorm:"size:100" json:"specialty"` // 声乐方向（美声/流行/民族等）
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	LastLogin time.Time      `json:"lastLogin"`
}

func (Instructor) TableName() string {
	return "instructors"
}
