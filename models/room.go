package models

import "time"

type Room struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomNumber string    `gorm:"column:room_number;size:32;uniqueIndex;not null" json:"room_number"`
	Pavilion   string    `gorm:"column:pavilion;size:64;not null" json:"pavilion"`
	RoomType   string    `gorm:"column:room_type;size:16;not null" json:"room_type"` // single | double | triple
	Capacity   int       `gorm:"column:capacity;not null" json:"capacity"`           // always derived from room_type
	IsUsed     bool      `gorm:"column:is_used;default:false" json:"is_used"`        // derived cache, recomputed on every assignment change
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Room) TableName() string {
	return "rooms"
}
