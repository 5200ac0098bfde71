package endpoints

import (
	"context"
	"fmt"
	"io"
	"jobmarket"
	"jobmarket/internal/api/handler/mapper"
	"jobmarket/internal/api/handler/middleware"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/models"
	"jobmarket/internal/api/repo"
	"jobmarket/pkg"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const mediaFormField = "media"

// JobLifecycle is the part of service.JobService the HTTP layer drives.
type JobLifecycle interface {
	CreateJob(ctx context.Context, actorID uint, req request.CreateJob, media []pkg.MediaBlob) (*models.Job, error)
	ApplyForJob(ctx context.Context, actorID uint, jobID uint) (*models.JobApplication, error)
	AssignJob(ctx context.Context, actorID uint, jobID uint, workerID uint) (*models.Job, error)
	ConfirmCompletion(ctx context.Context, actorID uint, jobID uint) (*models.Job, error)
	GetJob(ctx context.Context, id uint) (*models.Job, error)
	ListRecent(ctx context.Context) ([]models.Job, error)
	ListForPoster(ctx context.Context, actorID uint, filter repo.JobFilter) ([]models.Job, int64, error)
	UpdateJob(ctx context.Context, actorID uint, id uint, req request.UpdateJob) (*models.Job, error)
	DeleteJob(ctx context.Context, actorID uint, id uint) error
}

type jobHandler struct {
	jobService JobLifecycle
	logger     zerolog.Logger
}

func newJobHandler(jobService JobLifecycle) *jobHandler {
	return &jobHandler{
		jobService: jobService,
		logger:     jobmarket.Logger,
	}
}

func JobHandler(router *graceful.Graceful, jobService JobLifecycle) {
	registerJobRoutes(router.Engine, newJobHandler(jobService), jobmarket.GetConfig())
}

func registerJobRoutes(router gin.IRouter, h *jobHandler, cfg jobmarket.AppConfig) {
	routes := router.Group("/api/v1/jobs")
	routes.Use(middleware.AuthMiddleware(cfg))
	{
		routes.GET("/recent", h.getRecent)
		routes.GET("/mine", h.getMine)
		routes.GET("/:id", h.getByID)
		routes.POST("", middleware.RequireRole(models.RoleWorkProvider), h.create)
		routes.PATCH("/:id", h.update)
		routes.DELETE("/:id", h.delete)

		routes.POST("/:id/apply", middleware.RequireRole(models.RoleWorker), h.apply)
		routes.POST("/:id/assign", h.assign)
		routes.POST("/:id/complete", h.complete)
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

func (slf *jobHandler) getRecent(c *gin.Context) {
	jobs, err := slf.jobService.ListRecent(c.Request.Context())
	if err != nil {
		writeServiceError(c, slf.logger, err, "Failed to retrieve jobs")
		return
	}
	c.JSON(http.StatusOK, mapper.ToJobResponses(jobs))
}

// getMine lists the caller's own jobs with search, filters and sort
func (slf *jobHandler) getMine(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var query request.JobListQuery
	if err := pkg.ParseFormAndValidate(c, &query); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	jobs, total, err := slf.jobService.ListForPoster(c.Request.Context(), userID, repo.JobFilter{
		Search:   query.Search,
		Status:   query.Status,
		Category: query.JobType,
		Sort:     query.Sort,
	})
	if err != nil {
		writeServiceError(c, slf.logger, err, "Failed to retrieve jobs")
		return
	}
	c.JSON(http.StatusOK, response.JobList{Jobs: mapper.ToJobResponses(jobs), Total: total})
}

func (slf *jobHandler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := slf.jobService.GetJob(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, slf.logger, err, "Failed to get job")
		return
	}
	c.JSON(http.StatusOK, mapper.ToJobResponse(*job))
}

// create expects a multipart form: the job fields plus one or more files
// under "media".
func (slf *jobHandler) create(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	var req request.CreateJob
	if err := pkg.ParseFormAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Multipart form with media files required"})
		return
	}
	media, err := readMediaBlobs(form.File[mediaFormField])
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	job, err := slf.jobService.CreateJob(c.Request.Context(), userID, req, media)
	if err != nil {
		writeServiceError(c, slf.logger, err, "Failed to create job")
		return
	}
	c.JSON(http.StatusCreated, mapper.ToJobResponse(*job))
}

func (slf *jobHandler) update(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req request.UpdateJob
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	job, err := slf.jobService.UpdateJob(c.Request.Context(), userID, id, req)
	if err != nil {
		writeServiceError(c, slf.logger, err, "Failed to update job")
		return
	}
	c.JSON(http.StatusOK, mapper.ToJobResponse(*job))
}

func (slf *jobHandler) delete(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := slf.jobService.DeleteJob(c.Request.Context(), userID, id); err != nil {
		writeServiceError(c, slf.logger, err, "Failed to delete job")
		return
	}
	c.Status(http.StatusNoContent)
}

// apply, assign and complete answer 200 with a warning when the change was
// saved but its notification was not accepted by the bus.
func (slf *jobHandler) apply(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	app, err := slf.jobService.ApplyForJob(c.Request.Context(), userID, id)
	warning, delivered := deliveryWarning(err)
	if err != nil && (app == nil || !delivered) {
		writeServiceError(c, slf.logger, err, "Failed to apply for job")
		return
	}
	if delivered {
		slf.logger.Warn().Err(err).Uint("jobId", id).Msg("Application saved without notification")
	}

	c.JSON(http.StatusCreated, response.ApplicationResult{
		Application: mapper.ToApplicationResponse(*app),
		Warning:     warning,
	})
}

func (slf *jobHandler) assign(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req request.AssignJob
	if err := pkg.ParseAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	job, err := slf.jobService.AssignJob(c.Request.Context(), userID, id, req.WorkerID)
	slf.writeJobResult(c, job, err, "Failed to assign job")
}

func (slf *jobHandler) complete(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := slf.jobService.ConfirmCompletion(c.Request.Context(), userID, id)
	slf.writeJobResult(c, job, err, "Failed to confirm job completion")
}

func (slf *jobHandler) writeJobResult(c *gin.Context, job *models.Job, err error, msg string) {
	warning, delivered := deliveryWarning(err)
	if err != nil && (job == nil || !delivered) {
		writeServiceError(c, slf.logger, err, msg)
		return
	}
	if delivered {
		slf.logger.Warn().Err(err).Uint("jobId", job.ID).Msg("Job updated without notification")
	}
	c.JSON(http.StatusOK, response.JobResult{Job: mapper.ToJobResponse(*job), Warning: warning})
}

func readMediaBlobs(files []*multipart.FileHeader) ([]pkg.MediaBlob, error) {
	blobs := make([]pkg.MediaBlob, 0, len(files))
	for _, fh := range files {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		blobs = append(blobs, pkg.MediaBlob{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return blobs, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
