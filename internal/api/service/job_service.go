package service

import (
	"context"
	"errors"
	"fmt"
	"jobmarket"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/models"
	"jobmarket/internal/api/repo"
	"jobmarket/pkg"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	maxTitleLength  = 50
	recentJobsLimit = 10
)

// UserDirectory resolves actors and workers by id.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint) (models.User, error)
}

// MediaStore turns an uploaded blob into a durable URL.
type MediaStore interface {
	Upload(ctx context.Context, blob pkg.MediaBlob) (string, error)
}

// Notifier hands notifications over for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, recipientID uint, msg pkg.Notification) error
	Broadcast(ctx context.Context, msg pkg.Notification) error
}

// JobService is the job lifecycle engine: create, apply, assign, confirm.
//
// Every mutation that can race is a conditional write keyed on the job id
// (or a unique index for applications), so concurrent callers observe
// ErrConflict instead of overwriting each other.
type JobService struct {
	jobRepo       *repo.JobRepository
	users         UserDirectory
	media         MediaStore
	notifier      Notifier
	logger        zerolog.Logger
	uploadTimeout time.Duration
	notifyTimeout time.Duration
}

func NewJobService(media MediaStore, notifier Notifier) *JobService {
	cfg := jobmarket.GetConfig()
	return &JobService{
		jobRepo:       repo.NewJobRepository(),
		users:         repo.NewUserRepository(),
		media:         media,
		notifier:      notifier,
		logger:        jobmarket.Logger,
		uploadTimeout: cfg.Timeouts.MediaUpload,
		notifyTimeout: cfg.Timeouts.Notify,
	}
}

// withTimeout leaves ctx untouched when no timeout is configured.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// ============ Lifecycle ============

// CreateJob posts a new job on behalf of a work provider. Media is uploaded
// before anything is persisted; an upload failure leaves no job behind. The
// "job posted" broadcast is best effort and never fails the call.
func (slf *JobService) CreateJob(ctx context.Context, actorID uint, req request.CreateJob, media []pkg.MediaBlob) (*models.Job, error) {
	actor, err := slf.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleWorkProvider {
		return nil, unauthorized("only work providers can post jobs")
	}
	if err := validateJobInput(req); err != nil {
		return nil, err
	}
	if len(media) == 0 {
		return nil, invalidInput("at least one media file is required")
	}
	for i, blob := range media {
		if len(blob.Data) == 0 {
			return nil, invalidInput("media file %d is empty", i+1)
		}
	}

	urls, err := slf.uploadMedia(ctx, media)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", actor.ID).Msg("Error uploading job media")
		return nil, storageFailure(err)
	}

	job := models.Job{
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Category:       req.Category,
		Location:       strings.TrimSpace(req.Location),
		Price:          req.Price,
		Media:          urls,
		Status:         models.JobStatusActive,
		PostedBy:       actor.ID,
		PosterName:     actor.Name,
		PosterLastName: actor.LastName,
		PosterEmail:    actor.Email,
	}
	if err := slf.jobRepo.Create(ctx, &job); err != nil {
		slf.logger.Error().Err(err).Uint("userId", actor.ID).Msg("Error creating job")
		return nil, err
	}

	slf.logger.Info().Uint("jobId", job.ID).Uint("userId", actor.ID).Msg("Job posted")
	slf.broadcastJobPosted(ctx, job)
	return &job, nil
}

// ApplyForJob records the actor's application and notifies the poster.
//
// The application is committed before the poster is notified. When delivery
// fails the returned application is still non-nil and the error wraps
// ErrDelivery.
func (slf *JobService) ApplyForJob(ctx context.Context, actorID uint, jobID uint) (*models.JobApplication, error) {
	actor, err := slf.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleWorker {
		return nil, unauthorized("only workers can apply for jobs")
	}

	job, err := slf.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if _, applied := job.FindApplication(actor.ID); applied {
		return nil, conflict("already applied for job %d", job.ID)
	}
	if job.Status != models.JobStatusActive {
		return nil, conflict("job %d is no longer accepting applications", job.ID)
	}

	app := models.JobApplication{
		JobID:      job.ID,
		WorkerID:   actor.ID,
		WorkerName: actor.FullName(),
	}
	if err := slf.jobRepo.AddApplication(ctx, &app); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("already applied for job %d", job.ID)
		}
		slf.logger.Error().Err(err).Uint("jobId", job.ID).Uint("userId", actor.ID).Msg("Error saving application")
		return nil, err
	}
	slf.logger.Info().Uint("jobId", job.ID).Uint("userId", actor.ID).Msg("Application received")

	err = slf.notify(ctx, job.PostedBy, pkg.Notification{
		Title: "New application",
		Body:  fmt.Sprintf("%s applied for %s", app.WorkerName, job.Title),
		Data:  jobData(job.ID, "workerId", app.WorkerID),
	})
	return &app, err
}

// AssignJob binds one applicant to the job and moves it to pending. Only the
// poster may assign, and only once.
//
// The assignment is committed before the worker is notified. When delivery
// fails the returned job reflects the assignment and the error wraps
// ErrDelivery.
func (slf *JobService) AssignJob(ctx context.Context, actorID uint, jobID uint, workerID uint) (*models.Job, error) {
	job, err := slf.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.PostedBy != actorID {
		return nil, unauthorized("only the poster of job %d can assign it", job.ID)
	}
	if job.IsAssigned() {
		return nil, conflict("job %d is already assigned", job.ID)
	}

	app, applied := job.FindApplication(workerID)
	if !applied {
		return nil, invalidInput("worker %d did not apply for job %d", workerID, job.ID)
	}
	worker, err := slf.users.FindByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidInput("worker %d does not exist", workerID)
		}
		slf.logger.Error().Err(err).Uint("userId", workerID).Msg("Error finding worker")
		return nil, err
	}
	if worker.Role != models.RoleWorker {
		return nil, invalidInput("user %d is not a worker", workerID)
	}

	// The application entry is the source of the worker name so the
	// assignment shows what the poster saw when choosing.
	won, err := slf.jobRepo.AssignWorker(ctx, job.ID, app)
	if err != nil {
		slf.logger.Error().Err(err).Uint("jobId", job.ID).Msg("Error assigning worker")
		return nil, err
	}
	if !won {
		return nil, conflict("job %d is already assigned", job.ID)
	}
	slf.logger.Info().Uint("jobId", job.ID).Uint("workerId", workerID).Msg("Worker assigned")

	updated, err := slf.findJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	err = slf.notify(ctx, workerID, pkg.Notification{
		Title: "You got the job",
		Body:  fmt.Sprintf("%s assigned you to %s", job.PosterName, job.Title),
		Data:  jobData(job.ID, "status", string(models.JobStatusPending)),
	})
	return &updated, err
}

// ConfirmCompletion closes a pending job, credits the assigned worker's
// completion history and notifies them.
//
// The state change is committed before the worker is notified. When delivery
// fails the returned job is already completed and the error wraps
// ErrDelivery.
func (slf *JobService) ConfirmCompletion(ctx context.Context, actorID uint, jobID uint) (*models.Job, error) {
	job, err := slf.findJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.PostedBy != actorID {
		return nil, unauthorized("only the poster of job %d can confirm its completion", job.ID)
	}
	if job.Status == models.JobStatusCompleted {
		return nil, conflict("job %d is already completed", job.ID)
	}
	if !job.IsAssigned() {
		return nil, invalidInput("no worker assigned to job %d", job.ID)
	}

	done, err := slf.jobRepo.Complete(ctx, job)
	if err != nil {
		slf.logger.Error().Err(err).Uint("jobId", job.ID).Msg("Error completing job")
		return nil, err
	}
	if !done {
		return nil, conflict("job %d is already completed", job.ID)
	}
	workerID := *job.AssignedWorkerID
	slf.logger.Info().Uint("jobId", job.ID).Uint("workerId", workerID).Msg("Job completed")

	updated, err := slf.findJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	err = slf.notify(ctx, workerID, pkg.Notification{
		Title: "Job completed",
		Body:  fmt.Sprintf("%s confirmed that %s is done", job.PosterName, job.Title),
		Data:  jobData(job.ID, "status", string(models.JobStatusCompleted)),
	})
	return &updated, err
}

// ============ Reads and owner operations ============

func (slf *JobService) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	job, err := slf.findJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the latest jobs posted by anyone
func (slf *JobService) ListRecent(ctx context.Context) ([]models.Job, error) {
	jobs, err := slf.jobRepo.FindRecent(ctx, recentJobsLimit)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing recent jobs")
		return nil, err
	}
	return jobs, nil
}

// ListForPoster returns the actor's own jobs with the total count
func (slf *JobService) ListForPoster(ctx context.Context, actorID uint, filter repo.JobFilter) ([]models.Job, int64, error) {
	if filter.Status != "" && filter.Status != "all" && !models.JobStatus(filter.Status).IsValid() {
		return nil, 0, invalidInput("unknown status %q", filter.Status)
	}
	if filter.Category != "" && filter.Category != "all" && !models.JobCategory(filter.Category).IsValid() {
		return nil, 0, invalidInput("unknown job type %q", filter.Category)
	}

	jobs, total, err := slf.jobRepo.FindByPoster(ctx, actorID, filter)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", actorID).Msg("Error listing jobs for poster")
		return nil, 0, err
	}
	return jobs, total, nil
}

// UpdateJob changes the descriptive fields of a job. Lifecycle fields are
// not reachable from here.
func (slf *JobService) UpdateJob(ctx context.Context, actorID uint, id uint, req request.UpdateJob) (*models.Job, error) {
	job, err := slf.findJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.PostedBy != actorID {
		return nil, unauthorized("only the poster of job %d can update it", job.ID)
	}

	patch, err := buildJobPatch(req)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return &job, nil
	}

	if err := slf.jobRepo.Update(ctx, job.ID, patch); err != nil {
		slf.logger.Error().Err(err).Uint("jobId", job.ID).Msg("Error updating job")
		return nil, err
	}
	updated, err := slf.findJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteJob removes a job regardless of its state. Only its poster may.
func (slf *JobService) DeleteJob(ctx context.Context, actorID uint, id uint) error {
	job, err := slf.findJob(ctx, id)
	if err != nil {
		return err
	}
	if job.PostedBy != actorID {
		return unauthorized("only the poster of job %d can delete it", job.ID)
	}
	if err := slf.jobRepo.Delete(ctx, job.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("job %d", id)
		}
		slf.logger.Error().Err(err).Uint("jobId", job.ID).Msg("Error deleting job")
		return err
	}
	slf.logger.Info().Uint("jobId", job.ID).Uint("userId", actorID).Msg("Job deleted")
	return nil
}

// ============ Helpers ============

// resolveActor loads the authenticated user. An identity that no longer
// resolves is treated as unauthorized rather than missing.
func (slf *JobService) resolveActor(ctx context.Context, actorID uint) (models.User, error) {
	user, err := slf.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, unauthorized("user %d does not exist", actorID)
		}
		slf.logger.Error().Err(err).Uint("userId", actorID).Msg("Error resolving actor")
		return models.User{}, err
	}
	return user, nil
}

func (slf *JobService) findJob(ctx context.Context, id uint) (models.Job, error) {
	job, err := slf.jobRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Job{}, notFound("job %d", id)
		}
		slf.logger.Error().Err(err).Uint("jobId", id).Msg("Error getting job")
		return models.Job{}, err
	}
	return job, nil
}

// uploadMedia uploads every blob concurrently and returns the URLs in the
// order the blobs were given. The first failure cancels the rest.
func (slf *JobService) uploadMedia(ctx context.Context, media []pkg.MediaBlob) ([]string, error) {
	ctx, cancel := withTimeout(ctx, slf.uploadTimeout)
	defer cancel()

	urls := make([]string, len(media))
	g, gctx := errgroup.WithContext(ctx)
	for i, blob := range media {
		g.Go(func() error {
			url, err := slf.media.Upload(gctx, blob)
			if err != nil {
				return fmt.Errorf("upload %q: %w", blob.Filename, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func (slf *JobService) notify(ctx context.Context, recipientID uint, msg pkg.Notification) error {
	ctx, cancel := withTimeout(ctx, slf.notifyTimeout)
	defer cancel()

	if err := slf.notifier.Notify(ctx, recipientID, msg); err != nil {
		slf.logger.Error().Err(err).Uint("recipientId", recipientID).Str("title", msg.Title).Msg("Error delivering notification")
		return deliveryFailure(err)
	}
	return nil
}

// broadcastJobPosted runs detached from the request so a slow bus never
// delays job creation.
func (slf *JobService) broadcastJobPosted(ctx context.Context, job models.Job) {
	msg := pkg.Notification{
		Title: "New job posted",
		Body:  fmt.Sprintf("%s: %s", job.Category, job.Title),
		Data:  jobData(job.ID, "category", string(job.Category)),
	}
	detached := context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := withTimeout(detached, slf.notifyTimeout)
		defer cancel()

		if err := slf.notifier.Broadcast(ctx, msg); err != nil {
			slf.logger.Warn().Err(err).Uint("jobId", job.ID).Msg("Job posted broadcast failed")
		}
	}()
}

func jobData(jobID uint, key string, value any) map[string]string {
	return map[string]string{
		"jobId": strconv.FormatUint(uint64(jobID), 10),
		key:     fmt.Sprint(value),
	}
}

func validateJobInput(req request.CreateJob) error {
	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return invalidInput("title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		return invalidInput("title must be at most %d characters", maxTitleLength)
	case strings.TrimSpace(req.Description) == "":
		return invalidInput("description is required")
	case !req.Category.IsValid():
		return invalidInput("category %q is not a known job category", req.Category)
	case !validPrice(req.Price):
		return invalidInput("price must be a positive number")
	}
	return nil
}

func validPrice(price float64) bool {
	return price > 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}

// buildJobPatch ignores nil and blank fields, matching the partial update
// semantics clients rely on.
func buildJobPatch(req request.UpdateJob) (map[string]any, error) {
	patch := make(map[string]any)

	if req.Title != nil {
		if title := strings.TrimSpace(*req.Title); title != "" {
			if utf8.RuneCountInString(title) > maxTitleLength {
				return nil, invalidInput("title must be at most %d characters", maxTitleLength)
			}
			patch["title"] = title
		}
	}
	if req.Description != nil {
		if description := strings.TrimSpace(*req.Description); description != "" {
			patch["description"] = description
		}
	}
	if req.Category != nil && *req.Category != "" {
		if !req.Category.IsValid() {
			return nil, invalidInput("category %q is not a known job category", *req.Category)
		}
		patch["category"] = *req.Category
	}
	if req.Location != nil {
		if location := strings.TrimSpace(*req.Location); location != "" {
			patch["location"] = location
		}
	}
	if req.Price != nil {
		if !validPrice(*req.Price) {
			return nil, invalidInput("price must be a positive number")
		}
		patch["price"] = *req.Price
	}
	if len(req.Media) > 0 {
		patch["media"] = models.MediaURLs(req.Media)
	}
	return patch, nil
}
