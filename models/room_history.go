package models

import "time"

// RoomHistory is append-only: rows are never updated, and only deleted
// as a cascade when the owning student is deleted.
type RoomHistory struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StudentID  uint      `gorm:"column:student_id;index;not null" json:"student_id"`
	RoomNumber string    `gorm:"column:room_number;size:32;not null" json:"room_number"`
	Year       int       `gorm:"column:year;not null" json:"year"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RoomHistory) TableName() string {
	return "room_history"
}
