package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JobStatus is the lifecycle state of a job.
//
//	active --assign--> pending --confirm--> completed
type JobStatus string

const (
	JobStatusActive    JobStatus = "active"
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
)

func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusActive, JobStatusPending, JobStatusCompleted:
		return true
	}
	return false
}

type JobCategory string

const (
	CategoryTechnical       JobCategory = "Technical"
	CategoryHousehold       JobCategory = "Household"
	CategoryRepair          JobCategory = "Repair"
	CategoryConstruction    JobCategory = "Construction"
	CategoryCleaning        JobCategory = "Cleaning"
	CategoryGardening       JobCategory = "Gardening"
	CategoryCooking         JobCategory = "Cooking"
	CategoryShiftingService JobCategory = "Shifting Service"
	CategoryOther           JobCategory = "Other"
)

var JobCategories = []JobCategory{
	CategoryTechnical,
	CategoryHousehold,
	CategoryRepair,
	CategoryConstruction,
	CategoryCleaning,
	CategoryGardening,
	CategoryCooking,
	CategoryShiftingService,
	CategoryOther,
}

func (c JobCategory) IsValid() bool {
	for _, known := range JobCategories {
		if c == known {
			return true
		}
	}
	return false
}

// MediaURLs holds the durable URLs returned by the media store.
type MediaURLs []string

// Value implements driver.Valuer for GORM
func (m MediaURLs) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for GORM
func (m *MediaURLs) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("failed to scan MediaURLs: expected []byte or string")
	}
}

// Job is the central marketplace entity. Poster fields are a snapshot taken
// when the job is created; they are never refreshed from the users table.
type Job struct {
	ID          uint        `gorm:"primaryKey"`
	Title       string      `gorm:"not null;size:50"`
	Description string      `gorm:"not null;type:text"`
	Category    JobCategory `gorm:"not null;type:varchar(32);index"`
	Location    string
	Price       float64   `gorm:"not null"`
	Media       MediaURLs `gorm:"type:jsonb"`
	Status      JobStatus `gorm:"not null;type:varchar(20);default:active;index"`

	PostedBy       uint   `gorm:"not null;index"`
	PosterName     string `gorm:"not null"`
	PosterLastName string `gorm:"not null"`
	PosterEmail    string `gorm:"not null"`

	Applications []JobApplication `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`

	AssignedWorkerID   *uint `gorm:"index"`
	AssignedWorkerName string

	CompletedBy     *uint
	CompletedByName string

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// JobApplication records a worker's interest in a job. The unique index on
// (job_id, worker_id) is what keeps concurrent duplicate applications out.
type JobApplication struct {
	ID         uint      `gorm:"primaryKey"`
	JobID      uint      `gorm:"not null;uniqueIndex:idx_job_application_worker"`
	WorkerID   uint      `gorm:"not null;uniqueIndex:idx_job_application_worker"`
	WorkerName string    `gorm:"not null"`
	CreatedAt  time.Time
}

// FindApplication returns the application made by workerID, if any.
func (j Job) FindApplication(workerID uint) (JobApplication, bool) {
	for _, app := range j.Applications {
		if app.WorkerID == workerID {
			return app, true
		}
	}
	return JobApplication{}, false
}

func (j Job) IsAssigned() bool {
	return j.AssignedWorkerID != nil
}
