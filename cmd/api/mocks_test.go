package main

import (
	"context"
	"io"
	"time"

	"github.com/folio-studio/folio/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockRepo is a mock implementation of Repository
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepo) CreateWork(ctx context.Context, work *models.Work) error {
	return m.Called(ctx, work).Error(0)
}

func (m *MockRepo) GetWork(ctx context.Context, id int64) (*models.Work, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Work), args.Error(1)
}

func (m *MockRepo) UpdateWork(ctx context.Context, work *models.Work) error {
	return m.Called(ctx, work).Error(0)
}

func (m *MockRepo) DeleteWork(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) SetWorkMedia(ctx context.Context, id int64, mediaKey, mediaType string) error {
	return m.Called(ctx, id, mediaKey, mediaType).Error(0)
}

func (m *MockRepo) ListWorks(ctx context.Context, filter models.WorkFilter) ([]*models.Work, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Work), args.Error(1)
}

func (m *MockRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockRepo) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockRepo) ListComments(ctx context.Context, workID int64, limit, offset int) ([]*models.Comment, error) {
	args := m.Called(ctx, workID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *MockRepo) DeleteComment(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) CreateCommission(ctx context.Context, c *models.Commission) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockRepo) GetCommission(ctx context.Context, id string) (*models.Commission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commission), args.Error(1)
}

func (m *MockRepo) ListCommissions(ctx context.Context, status string, limit, offset int) ([]*models.Commission, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commission), args.Error(1)
}

func (m *MockRepo) UpdateCommissionStatus(ctx context.Context, id, status string) (*models.Commission, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commission), args.Error(1)
}

func (m *MockRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockRepo) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	args := m.Called(ctx, recipientID, unreadOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockRepo) MarkNotificationRead(ctx context.Context, recipientID string, id int64) error {
	return m.Called(ctx, recipientID, id).Error(0)
}

func (m *MockRepo) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

// MockStorage is a mock implementation of ObjectStore
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	return m.Called(ctx, objectName, reader, size, contentType).Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, objectName string) error {
	return m.Called(ctx, objectName).Error(0)
}

func (m *MockStorage) DeletePrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

func (m *MockStorage) GetURL(ctx context.Context, objectName string) (string, error) {
	args := m.Called(ctx, objectName)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockCache is a mock implementation of WorkCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetWork(ctx context.Context, workID int64) (*models.Work, error) {
	args := m.Called(ctx, workID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Work), args.Error(1)
}

func (m *MockCache) WorkGeneration(ctx context.Context, workID int64) (int64, error) {
	args := m.Called(ctx, workID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) SetWork(ctx context.Context, work *models.Work, gen int64, ttl time.Duration) error {
	return m.Called(ctx, work, gen, ttl).Error(0)
}

func (m *MockCache) InvalidateWork(ctx context.Context, workID int64) error {
	return m.Called(ctx, workID).Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockQueue is a mock implementation of JobPublisher
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) PublishThumbnailJob(ctx context.Context, job *models.ThumbnailJob) error {
	return m.Called(ctx, job).Error(0)
}

// MockLikes is a mock implementation of LikeService
type MockLikes struct {
	mock.Mock
}

func (m *MockLikes) Toggle(ctx context.Context, identity *models.Identity, workID int64, fingerprint string) (*models.LikeStatus, error) {
	args := m.Called(ctx, identity, workID, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LikeStatus), args.Error(1)
}

func (m *MockLikes) Check(ctx context.Context, identity *models.Identity, workID int64, fingerprint string) *models.LikeStatus {
	return m.Called(ctx, identity, workID, fingerprint).Get(0).(*models.LikeStatus)
}

// MockHandoff is a mock implementation of CommissionHandoff
type MockHandoff struct {
	mock.Mock
}

func (m *MockHandoff) HandOff(c *models.Commission) {
	m.Called(c)
}

func (m *MockHandoff) ChatLink(commissionID string) string {
	return m.Called(commissionID).String(0)
}

// MockLimiter is a mock implementation of Limiter
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
