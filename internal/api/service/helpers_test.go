package service

import (
	"context"
	"errors"
	"fmt"
	"jobmarket"
	"jobmarket/internal/api/models"
	"jobmarket/internal/api/repo"
	"jobmarket/pkg"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory database. A single connection keeps
// the shared-cache database alive and serialises writers like a row lock.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), jobmarket.GormConfig())
	require.NoError(t, err, "Failed to open test database")

	conn, err := db.DB()
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = conn.Close() })

	err = db.AutoMigrate(&models.User{}, &models.CompletedJob{}, &models.Job{}, &models.JobApplication{})
	require.NoError(t, err, "Failed to migrate test database")
	return db
}

func createUser(t *testing.T, db *gorm.DB, role models.AppRole, name string) models.User {
	t.Helper()

	user := models.User{
		Name:        name,
		LastName:    "Tester",
		Email:       fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PhoneNumber: "+977 9800000000",
		Password:    "not-a-real-hash",
		Role:        role,
		Actif:       true,
	}
	require.NoError(t, db.Create(&user).Error, "Failed to create user")
	return user
}

// ============ Fakes ============

type fakeMedia struct {
	mu      sync.Mutex
	err     error
	delay   time.Duration
	uploads []pkg.MediaBlob
}

func (f *fakeMedia) Upload(ctx context.Context, blob pkg.MediaBlob) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, blob)
	return "https://media.test/job_media/" + blob.Filename, nil
}

func (f *fakeMedia) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type sentNotification struct {
	recipientID uint
	msg         pkg.Notification
}

type fakeNotifier struct {
	mu           sync.Mutex
	notifyErr    error
	broadcastErr error
	sent         []sentNotification
	broadcasts   chan pkg.Notification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{broadcasts: make(chan pkg.Notification, 16)}
}

func (f *fakeNotifier) Notify(_ context.Context, recipientID uint, msg pkg.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.sent = append(f.sent, sentNotification{recipientID: recipientID, msg: msg})
	return nil
}

func (f *fakeNotifier) Broadcast(_ context.Context, msg pkg.Notification) error {
	f.broadcasts <- msg
	return f.broadcastErr
}

func (f *fakeNotifier) notified() []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentNotification(nil), f.sent...)
}

var errBusDown = errors.New("bus unavailable")

// ============ Fixture ============

type jobFixture struct {
	db       *gorm.DB
	service  *JobService
	media    *fakeMedia
	notifier *fakeNotifier
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()

	db := newTestDB(t)
	media := &fakeMedia{}
	notifier := newFakeNotifier()
	return &jobFixture{
		db:       db,
		media:    media,
		notifier: notifier,
		service: &JobService{
			jobRepo:       &repo.JobRepository{Db: db},
			users:         &repo.UserRepository{Db: db},
			media:         media,
			notifier:      notifier,
			logger:        zerolog.Nop(),
			uploadTimeout: time.Second,
			notifyTimeout: time.Second,
		},
	}
}
