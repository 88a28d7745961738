package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizQuestion struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	OptionA       string    `gorm:"column:option_a;size:255" json:"option_a"`
	OptionB       string    `gorm:"column:option_b;size:255" json:"option_b"`
	OptionC       string    `gorm:"column:option_c;size:255" json:"option_c"`
	OptionD       string    `gorm:"column:option_d;size:255" json:"option_d"`
	CorrectOption string    `gorm:"size:1;not null" json:"-"`
	Explanation   string    `gorm:"type:text" json:"-"`
	Category      string    `gorm:"size:50;index" json:"category"`
	Difficulty    string    `gorm:"size:16;index" json:"difficulty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

type QuizAttempt struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"size:36;not null;index" json:"user_id"`
	QuestionID     string    `gorm:"size:36;not null;index" json:"question_id"`
	SelectedOption string    `gorm:"size:1;not null" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	XPEarned       int64     `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
