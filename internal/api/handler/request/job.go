package request

import "jobmarket/internal/api/models"

// CreateJob carries the text fields of the multipart job creation form; the
// media files travel in the same form under the "media" key.
type CreateJob struct {
	Title       string             `form:"title" json:"title" validate:"required,max=50"`
	Description string             `form:"description" json:"description" validate:"required"`
	Category    models.JobCategory `form:"category" json:"category" validate:"required,jobcategory"`
	Location    string             `form:"location" json:"location"`
	Price       float64            `form:"price" json:"price" validate:"required,gt=0"`
}

// UpdateJob is a partial update; nil or empty fields are left untouched.
type UpdateJob struct {
	Title       *string             `json:"title,omitempty" validate:"omitempty,max=50"`
	Description *string             `json:"description,omitempty"`
	Category    *models.JobCategory `json:"category,omitempty" validate:"omitempty,jobcategory"`
	Location    *string             `json:"location,omitempty"`
	Price       *float64            `json:"price,omitempty" validate:"omitempty,gt=0"`
	Media       []string            `json:"media,omitempty" validate:"omitempty,dive,url"`
}

type AssignJob struct {
	WorkerID uint `json:"workerId" validate:"required"`
}

// JobListQuery mirrors the query string of the poster's job list.
type JobListQuery struct {
	Search  string `form:"search"`
	Status  string `form:"status"`
	JobType string `form:"jobType"`
	Sort    string `form:"sort" validate:"omitempty,oneof=latest oldest a-z z-a"`
}
