package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"jobmarket"
	"jobmarket/internal/api/handler/request"
	"jobmarket/internal/api/handler/response"
	"jobmarket/internal/api/models"
	"jobmarket/internal/api/repo"
	"jobmarket/internal/api/service"
	"jobmarket/pkg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerSecret = "handler-secret"

type fakeLifecycle struct {
	err        error
	job        *models.Job
	app        *models.JobApplication
	gotActor   uint
	gotCreate  request.CreateJob
	gotMedia   []pkg.MediaBlob
	gotFilter  repo.JobFilter
	gotWorker  uint
	gotJobID   uint
	gotPatch   request.UpdateJob
	listResult []models.Job
}

func (f *fakeLifecycle) CreateJob(_ context.Context, actorID uint, req request.CreateJob, media []pkg.MediaBlob) (*models.Job, error) {
	f.gotActor, f.gotCreate, f.gotMedia = actorID, req, media
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

func (f *fakeLifecycle) ApplyForJob(_ context.Context, actorID uint, jobID uint) (*models.JobApplication, error) {
	f.gotActor, f.gotJobID = actorID, jobID
	return f.app, f.err
}

func (f *fakeLifecycle) AssignJob(_ context.Context, actorID uint, jobID uint, workerID uint) (*models.Job, error) {
	f.gotActor, f.gotJobID, f.gotWorker = actorID, jobID, workerID
	return f.job, f.err
}

func (f *fakeLifecycle) ConfirmCompletion(_ context.Context, actorID uint, jobID uint) (*models.Job, error) {
	f.gotActor, f.gotJobID = actorID, jobID
	return f.job, f.err
}

func (f *fakeLifecycle) GetJob(_ context.Context, id uint) (*models.Job, error) {
	f.gotJobID = id
	return f.job, f.err
}

func (f *fakeLifecycle) ListRecent(context.Context) ([]models.Job, error) {
	return f.listResult, f.err
}

func (f *fakeLifecycle) ListForPoster(_ context.Context, actorID uint, filter repo.JobFilter) ([]models.Job, int64, error) {
	f.gotActor, f.gotFilter = actorID, filter
	return f.listResult, int64(len(f.listResult)), f.err
}

func (f *fakeLifecycle) UpdateJob(_ context.Context, actorID uint, id uint, req request.UpdateJob) (*models.Job, error) {
	f.gotActor, f.gotJobID, f.gotPatch = actorID, id, req
	return f.job, f.err
}

func (f *fakeLifecycle) DeleteJob(_ context.Context, actorID uint, id uint) error {
	f.gotActor, f.gotJobID = actorID, id
	return f.err
}

func newJobRouter(t *testing.T, fake *fakeLifecycle) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := jobmarket.AppConfig{}
	cfg.JWTConfig.Secret = handlerSecret

	router := gin.New()
	registerJobRoutes(router, &jobHandler{jobService: fake, logger: zerolog.Nop()}, cfg)
	return router
}

func bearer(t *testing.T, userID uint) string {
	return bearerAs(t, userID, models.RoleWorkProvider)
}

func bearerAs(t *testing.T, userID uint, role models.AppRole) string {
	t.Helper()
	token, err := pkg.GenerateToken(userID, "user@example.com", string(role), handlerSecret, 5)
	require.NoError(t, err)
	return "Bearer " + token
}

func sampleJob() *models.Job {
	return &models.Job{
		ID:          9,
		Title:       "Clean my flat",
		Description: "Two bedrooms",
		Category:    models.CategoryCleaning,
		Price:       500,
		Media:       models.MediaURLs{"https://cdn/a.jpg"},
		Status:      models.JobStatusActive,
		PostedBy:    1,
		PosterName:  "Priya",
	}
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ============ Auth ============

func TestJobHandler_RequiresToken(t *testing.T) {
	router := newJobRouter(t, &fakeLifecycle{})

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/recent", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/recent", nil)
	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, do(router, req).Code)
}

func TestJobHandler_RoleGate(t *testing.T) {
	fake := &fakeLifecycle{app: &models.JobApplication{JobID: 9, WorkerID: 1}}
	router := newJobRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/9/apply", nil)
	req.Header.Set("Authorization", bearerAs(t, 1, models.RoleWorkProvider))
	assert.Equal(t, http.StatusForbidden, do(router, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(""))
	req.Header.Set("Authorization", bearerAs(t, 3, models.RoleWorker))
	assert.Equal(t, http.StatusForbidden, do(router, req).Code)

	assert.Zero(t, fake.gotActor, "service must not be reached")
}

// ============ Create ============

func TestJobHandler_Create(t *testing.T) {
	fake := &fakeLifecycle{job: sampleJob()}
	router := newJobRouter(t, fake)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Clean my flat"))
	require.NoError(t, mw.WriteField("description", "Two bedrooms"))
	require.NoError(t, mw.WriteField("category", "Cleaning"))
	require.NoError(t, mw.WriteField("location", "Kathmandu"))
	require.NoError(t, mw.WriteField("price", "500"))
	for _, name := range []string{"a.jpg", "b.jpg"} {
		part, err := mw.CreateFormFile("media", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("bytes-of-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, 1))
	w := do(router, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, uint(1), fake.gotActor)
	assert.Equal(t, models.CategoryCleaning, fake.gotCreate.Category)
	assert.Equal(t, float64(500), fake.gotCreate.Price)
	require.Len(t, fake.gotMedia, 2)
	assert.Equal(t, "a.jpg", fake.gotMedia[0].Filename)
	assert.Equal(t, []byte("bytes-of-b.jpg"), fake.gotMedia[1].Data)

	var resp response.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(9), resp.ID)
	assert.Equal(t, "Priya", resp.PostedBy.Name)
	assert.Empty(t, resp.Applications)
}

func TestJobHandler_Create_RejectsBadForm(t *testing.T) {
	fake := &fakeLifecycle{job: sampleJob()}
	router := newJobRouter(t, fake)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Clean my flat"))
	require.NoError(t, mw.WriteField("description", "Two bedrooms"))
	require.NoError(t, mw.WriteField("category", "Plumbing"))
	require.NoError(t, mw.WriteField("price", "500"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, 1))

	assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
	assert.Zero(t, fake.gotActor, "service must not be reached")
}

// ============ Error mapping ============

func TestJobHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: nope", service.ErrUnauthorized), want: http.StatusForbidden},
		{err: fmt.Errorf("%w: job 9", service.ErrNotFound), want: http.StatusNotFound},
		{err: fmt.Errorf("%w: bad", service.ErrInvalidInput), want: http.StatusBadRequest},
		{err: fmt.Errorf("%w: already assigned", service.ErrConflict), want: http.StatusConflict},
		{err: fmt.Errorf("%w: bucket", service.ErrStorage), want: http.StatusBadGateway},
		{err: fmt.Errorf("%w: bus", service.ErrDelivery), want: http.StatusBadGateway},
		{err: fmt.Errorf("database is on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			router := newJobRouter(t, &fakeLifecycle{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/9/complete", nil)
			req.Header.Set("Authorization", bearer(t, 1))
			w := do(router, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "on fire", "internal errors are not echoed")
			}
		})
	}
}

// ============ Lifecycle ============

func TestJobHandler_Assign(t *testing.T) {
	job := sampleJob()
	worker := uint(4)
	job.Status = models.JobStatusPending
	job.AssignedWorkerID = &worker
	fake := &fakeLifecycle{job: job}
	router := newJobRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/9/assign", strings.NewReader(`{"workerId":4}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, 1))
	w := do(router, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint(9), fake.gotJobID)
	assert.Equal(t, uint(4), fake.gotWorker)

	var resp response.JobResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.JobStatusPending, resp.Job.Status)
	assert.Empty(t, resp.Warning)
}

func TestJobHandler_Assign_MissingWorker(t *testing.T) {
	router := newJobRouter(t, &fakeLifecycle{job: sampleJob()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/9/assign", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, 1))
	assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
}

func TestJobHandler_Complete_DeliveryWarning(t *testing.T) {
	job := sampleJob()
	job.Status = models.JobStatusCompleted
	fake := &fakeLifecycle{job: job, err: fmt.Errorf("%w: bus down", service.ErrDelivery)}
	router := newJobRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/9/complete", nil)
	req.Header.Set("Authorization", bearer(t, 1))
	w := do(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp response.JobResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.JobStatusCompleted, resp.Job.Status)
	assert.Contains(t, resp.Warning, "bus down")
}

func TestJobHandler_Apply(t *testing.T) {
	fake := &fakeLifecycle{app: &models.JobApplication{JobID: 9, WorkerID: 3, WorkerName: "Wanda Tester"}}
	router := newJobRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/9/apply", nil)
	req.Header.Set("Authorization", bearerAs(t, 3, models.RoleWorker))
	w := do(router, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint(3), fake.gotActor)

	var resp response.ApplicationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Wanda Tester", resp.Application.WorkerName)
}

func TestJobHandler_Apply_Conflict(t *testing.T) {
	fake := &fakeLifecycle{err: fmt.Errorf("%w: already applied for job 9", service.ErrConflict)}
	router := newJobRouter(t, fake)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/9/apply", nil)
	req.Header.Set("Authorization", bearerAs(t, 3, models.RoleWorker))
	w := do(router, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already applied")
}

// ============ Reads ============

func TestJobHandler_Mine(t *testing.T) {
	fake := &fakeLifecycle{listResult: []models.Job{*sampleJob()}}
	router := newJobRouter(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/mine?search=clean&status=active&jobType=Cleaning&sort=a-z", nil)
	req.Header.Set("Authorization", bearer(t, 1))
	w := do(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, repo.JobFilter{Search: "clean", Status: "active", Category: "Cleaning", Sort: "a-z"}, fake.gotFilter)

	var resp response.JobList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Jobs, 1)
}

func TestJobHandler_Mine_BadSort(t *testing.T) {
	router := newJobRouter(t, &fakeLifecycle{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/mine?sort=random", nil)
	req.Header.Set("Authorization", bearer(t, 1))
	assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
}

func TestJobHandler_GetByID_InvalidID(t *testing.T) {
	router := newJobRouter(t, &fakeLifecycle{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/abc", nil)
	req.Header.Set("Authorization", bearer(t, 1))
	assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
}

func TestJobHandler_Delete(t *testing.T) {
	fake := &fakeLifecycle{}
	router := newJobRouter(t, fake)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/9", nil)
	req.Header.Set("Authorization", bearer(t, 1))
	w := do(router, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint(9), fake.gotJobID)
}
