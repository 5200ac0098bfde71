package response

import (
	"jobmarket/internal/api/models"
	"time"
)

type JobApplication struct {
	WorkerID   uint      `json:"workerId"`
	WorkerName string    `json:"workerName"`
	AppliedAt  time.Time `json:"appliedAt"`
}

type Poster struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
}

// Job is the client view of a job. AssignedWorkerID and CompletedBy are
// omitted until the job reaches the matching state.
type Job struct {
	ID                 uint               `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Category           models.JobCategory `json:"category"`
	Location           string             `json:"location"`
	Price              float64            `json:"price"`
	Media              []string           `json:"media"`
	Status             models.JobStatus   `json:"status"`
	PostedBy           Poster             `json:"postedBy"`
	Applications       []JobApplication   `json:"applications"`
	AssignedWorkerID   *uint              `json:"assignedWorkerId,omitempty"`
	AssignedWorkerName string             `json:"assignedWorkerName,omitempty"`
	CompletedBy        *uint              `json:"completedBy,omitempty"`
	CompletedByName    string             `json:"completedByName,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type JobList struct {
	Jobs  []Job `json:"jobs"`
	Total int64 `json:"total"`
}

// JobResult carries the job together with a warning when the state change
// was saved but the notification could not be handed over.
type JobResult struct {
	Job     Job    `json:"job"`
	Warning string `json:"warning,omitempty"`
}

type ApplicationResult struct {
	Application JobApplication `json:"application"`
	Warning     string         `json:"warning,omitempty"`
}
