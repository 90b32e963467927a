package models

import "time"

type User struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"column:username;size:100;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"column:password;size:255;not null" json:"-"` // bcrypt hash, never returned
	Role      string    `gorm:"column:role;size:20;default:'user'" json:"role"` // admin | user
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
