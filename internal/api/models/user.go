package models

import (
	"time"

	"gorm.io/gorm"
)

type AppRole string

const (
	RoleWorkProvider AppRole = "WorkProvider"
	RoleWorker       AppRole = "Worker"
)

// DefaultRole is assigned at registration when the client does not pick one.
const DefaultRole = RoleWorkProvider

func (r AppRole) IsValid() bool {
	return r == RoleWorkProvider || r == RoleWorker
}

type User struct {
	ID             uint           `gorm:"primaryKey"`
	Name           string         `gorm:"not null;size:50;column:name"`
	LastName       string         `gorm:"not null;size:20;column:last_name"`
	Email          string         `gorm:"uniqueIndex;not null"`
	PhoneNumber    string         `gorm:"not null;index;column:phone_number"`
	Password       string         `gorm:"not null;column:password"`
	Role           AppRole        `gorm:"not null;type:varchar(20);column:role"`
	ProfilePicture string         `gorm:"column:profile_picture"`
	FcmToken       string         `gorm:"type:text;column:fcm_token"`
	Actif          bool           `gorm:"default:true;column:actif"`
	RefreshToken   string         `gorm:"type:text;column:refresh_token"`
	CompletedJobs  []CompletedJob `gorm:"foreignKey:UserID"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime;column:updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index;column:deleted_at"`
}

func (User) TableName() string {
	return "users"
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}

// CompletedJob is one entry of a worker's completion history. The title is
// copied at confirmation time and is not kept in sync with later edits.
type CompletedJob struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_completed_job_user_job" json:"-"`
	JobID       uint      `gorm:"not null;uniqueIndex:idx_completed_job_user_job" json:"jobId"`
	JobTitle    string    `gorm:"not null" json:"jobTitle"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completedAt"`
}
