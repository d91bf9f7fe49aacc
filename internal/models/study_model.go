package models

import (
	"time"

	"gorm.io/datatypes"
)

// Study data owned by a parent account through its students. These are the
// tables the deletion cascade wipes and the data-count summary aggregates.

type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name      string    `gorm:"size:100" json:"name"`
	GradeYear int       `json:"grade_year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index;not null" json:"student_id"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject   string    `gorm:"size:100" json:"subject"`
	Title     string    `gorm:"size:255" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Flashcard struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"index;not null" json:"student_id"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Front     string    `gorm:"type:text" json:"front"`
	Back      string    `gorm:"type:text" json:"back"`
	Deck      string    `gorm:"size:100;index" json:"deck"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StudySession struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	StudentID  uint       `gorm:"index;not null" json:"student_id"`
	Student    *Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject    string     `gorm:"size:100" json:"subject"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type AIInteraction struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StudentID uint           `gorm:"index;not null" json:"student_id"`
	Student   *Student       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Prompt    string         `gorm:"type:text" json:"prompt"`
	Response  string         `gorm:"type:text" json:"response"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (AIInteraction) TableName() string {
	return "ai_interactions"
}
