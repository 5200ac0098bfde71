package mapper

import (
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/models"
)

func ToJobResponse(j models.Job) response.Job {
	media := []string(j.Media)
	if media == nil {
		media = []string{}
	}
	return response.Job{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Category:    j.Category,
		Location:    j.Location,
		Price:       j.Price,
		Media:       media,
		Status:      j.Status,
		PostedBy: response.Poster{
			ID:       j.PostedBy,
			Name:     j.PosterName,
			LastName: j.PosterLastName,
			Email:    j.PosterEmail,
		},
		Applications:       ToApplicationResponses(j.Applications),
		AssignedWorkerID:   j.AssignedWorkerID,
		AssignedWorkerName: j.AssignedWorkerName,
		CompletedBy:        j.CompletedBy,
		CompletedByName:    j.CompletedByName,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
	}
}

func ToJobResponses(entities []models.Job) []response.Job {
	jobs := make([]response.Job, len(entities))
	for i, j := range entities {
		jobs[i] = ToJobResponse(j)
	}
	return jobs
}

func ToApplicationResponse(app models.JobApplication) response.JobApplication {
	return response.JobApplication{
		WorkerID:   app.WorkerID,
		WorkerName: app.WorkerName,
		AppliedAt:  app.CreatedAt,
	}
}

func ToApplicationResponses(apps []models.JobApplication) []response.JobApplication {
	out := make([]response.JobApplication, len(apps))
	for i, app := range apps {
		out[i] = ToApplicationResponse(app)
	}
	return out
}
