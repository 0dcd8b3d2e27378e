package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

// RefreshToken 记录已签发且尚未轮换/注销的 refresh token，CreatedAt 即签发时间。
// ExpiresAt 与 JWT 的 exp 一致，过期记录会被清理。
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;size:512;not null"`
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Sender    uint      `gorm:"index:idx_msg_pair,priority:1;not null" json:"sender"`
	Recipient uint      `gorm:"index:idx_msg_pair,priority:2;not null" json:"recipient"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
