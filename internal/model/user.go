package model

import (
	"time"

	"gorm.io/gorm"
)

// Roles known to the authorizer.
const (
	RoleUser     = "user"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// User represents the user model in the database.
type User struct {
	ID        uint64         `json:"id" gorm:"primaryKey;autoIncrement;comment:用户ID"`
	Username  string         `json:"username" gorm:"size:64;not null;uniqueIndex:uk_username;comment:用户名"`
	Email     string         `json:"email" gorm:"size:128;comment:邮箱"`
	FullName  string         `json:"full_name" gorm:"size:128;comment:姓名"`
	Password  string         `json:"-" gorm:"size:255;not null;comment:密码Hash"`
	Role      string         `json:"role" gorm:"size:32;default:user;comment:角色"`
	Active    bool           `json:"active" gorm:"comment:是否启用"`
	CreatedAt int64          `json:"created_at" gorm:"autoCreateTime:milli;comment:创建时间(时间戳)"`
	UpdatedAt int64          `json:"updated_at" gorm:"autoUpdateTime:milli;comment:更新时间(时间戳)"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index;comment:软删除时间"`
}

// TableName returns the table name for GORM.
func (u *User) TableName() string {
	return "users"
}

// BeforeCreate sets the CreatedAt and UpdatedAt fields.
func (u *User) BeforeCreate(_ *gorm.DB) (err error) {
	now := time.Now().UnixMilli()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return
}

// BeforeUpdate sets the UpdatedAt field.
func (u *User) BeforeUpdate(_ *gorm.DB) (err error) {
	u.UpdatedAt = time.Now().UnixMilli()
	return
}
