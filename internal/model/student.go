package model

// swagger:model Student
type Student struct {
	UUIDBase
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:100" json:"email"`
	Grade    string `gorm:"size:50" json:"grade"`
	IsActive bool   `gorm:"default:true" json:"isActive"`
}

func (Student) TableName() string {
	return "students"
}
