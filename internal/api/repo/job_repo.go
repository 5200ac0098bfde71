package repo

import (
	"context"
	"jobmarket"
	"jobmarket/internal/api/models"
	"strings"

	"gorm.io/gorm"
)

type JobRepository struct {
	Db *gorm.DB
}

func NewJobRepository() *JobRepository {
	return &JobRepository{Db: jobmarket.DB}
}

// JobFilter narrows the jobs listed for a poster. "all" or an empty value
// disables the status and category filters.
type JobFilter struct {
	Search   string
	Status   string
	Category string
	Sort     string
}

var jobSortOrders = map[string]string{
	"latest": "created_at DESC",
	"oldest": "created_at ASC",
	"a-z":    "description ASC",
	"z-a":    "description DESC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func preloadApplications(db *gorm.DB) *gorm.DB {
	return db.Preload("Applications", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

// FindByID retrieves a job with its applications in insertion order
func (slf *JobRepository) FindByID(ctx context.Context, id uint) (models.Job, error) {
	var job models.Job
	err := preloadApplications(slf.Db.WithContext(ctx)).First(&job, id).Error
	return job, err
}

// FindRecent retrieves the most recently posted jobs from every provider
func (slf *JobRepository) FindRecent(ctx context.Context, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := preloadApplications(slf.Db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// FindByPoster retrieves the jobs posted by a provider and the total matching count
func (slf *JobRepository) FindByPoster(ctx context.Context, posterID uint, filter JobFilter) ([]models.Job, int64, error) {
	query := slf.Db.WithContext(ctx).Model(&models.Job{}).Where("posted_by = ?", posterID)

	if filter.Search != "" {
		query = query.Where(`LOWER(description) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}
	if filter.Status != "" && filter.Status != "all" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" && filter.Category != "all" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if order, ok := jobSortOrders[filter.Sort]; ok {
		query = query.Order(order)
	}
	query = query.Order("id ASC")

	var jobs []models.Job
	if err := preloadApplications(query).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (slf *JobRepository) Create(ctx context.Context, job *models.Job) error {
	return slf.Db.WithContext(ctx).Create(job).Error
}

// AddApplication inserts an application. A second application by the same
// worker fails with gorm.ErrDuplicatedKey.
func (slf *JobRepository) AddApplication(ctx context.Context, app *models.JobApplication) error {
	return slf.Db.WithContext(ctx).Create(app).Error
}

// AssignWorker binds the applicant to the job if, and only if, the job is
// still active and unassigned. It reports false when another assignment won.
func (slf *JobRepository) AssignWorker(ctx context.Context, jobID uint, app models.JobApplication) (bool, error) {
	result := slf.Db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND assigned_worker_id IS NULL AND status = ?", jobID, models.JobStatusActive).
		Updates(map[string]any{
			"assigned_worker_id":   app.WorkerID,
			"assigned_worker_name": app.WorkerName,
			"status":               models.JobStatusPending,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Complete marks a pending job completed by its assigned worker and appends
// the job to that worker's history in the same transaction. It reports false
// when the job was no longer pending for that worker.
func (slf *JobRepository) Complete(ctx context.Context, job models.Job) (bool, error) {
	completed := false
	err := slf.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Job{}).
			Where("id = ? AND status = ? AND assigned_worker_id = ?", job.ID, models.JobStatusPending, *job.AssignedWorkerID).
			Updates(map[string]any{
				"status":            models.JobStatusCompleted,
				"completed_by":      *job.AssignedWorkerID,
				"completed_by_name": job.AssignedWorkerName,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}

		entry := models.CompletedJob{
			UserID:   *job.AssignedWorkerID,
			JobID:    job.ID,
			JobTitle: job.Title,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		completed = true
		return nil
	})
	return completed, err
}

// Update applies a column patch to a job
func (slf *JobRepository) Update(ctx context.Context, id uint, patch map[string]any) error {
	return slf.Db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(patch).Error
}

// Delete removes a job and its applications
func (slf *JobRepository) Delete(ctx context.Context, id uint) error {
	return slf.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.JobApplication{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Job{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
