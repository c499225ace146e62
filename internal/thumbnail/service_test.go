package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"testing"

	"github.com/folio-studio/folio/internal/database"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	downloaded  []string
	uploaded    map[string][]byte
	deleted     []string
	downloadErr error
	uploadErr   error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{uploaded: map[string][]byte{}}
}

func (m *fakeMedia) DownloadFile(ctx context.Context, objectName, filePath string) error {
	m.downloaded = append(m.downloaded, filePath)
	if m.downloadErr != nil {
		return m.downloadErr
	}
	return os.WriteFile(filePath, []byte("video"), 0644)
}

func (m *fakeMedia) UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if contentType != "image/jpeg" {
		return fmt.Errorf("unexpected content type %s", contentType)
	}
	m.uploaded[objectName] = data
	return nil
}

func (m *fakeMedia) Delete(ctx context.Context, objectName string) error {
	m.deleted = append(m.deleted, objectName)
	return nil
}

type fakeWorks struct {
	work      *models.Work
	getErr    error
	updateErr error

	key       string
	timestamp float64
	score     float64
}

func (w *fakeWorks) GetWork(ctx context.Context, id int64) (*models.Work, error) {
	if w.getErr != nil {
		return nil, w.getErr
	}
	return w.work, nil
}

func (w *fakeWorks) UpdateWorkThumbnail(ctx context.Context, id int64, key string, timestamp, score float64) error {
	if w.updateErr != nil {
		return w.updateErr
	}
	w.key, w.timestamp, w.score = key, timestamp, score
	return nil
}

type fakeWorkCache struct {
	invalidated []int64
}

func (c *fakeWorkCache) InvalidateWork(ctx context.Context, workID int64) error {
	c.invalidated = append(c.invalidated, workID)
	return nil
}

func videoWork() *models.Work {
	return &models.Work{
		ID:           5,
		Kind:         models.WorkKindVideo,
		MediaKey:     "works/5/media/clip.mp4",
		ThumbnailKey: "works/5/thumbnails/old.jpg",
	}
}

func newTestService(t *testing.T, decoder Decoder, media *fakeMedia, works *fakeWorks, cache *fakeWorkCache) *Service {
	return NewService(NewSelector(decoder, smallOptions()), media, works, cache, t.TempDir(), nil)
}

func assertTempRemoved(t *testing.T, media *fakeMedia) {
	t.Helper()
	for _, path := range media.downloaded {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "temp file %s should be removed", path)
	}
}

func TestProcessJobAuto(t *testing.T) {
	decoder := newFakeDecoder(100, sharpAround(45))
	media := newFakeMedia()
	works := &fakeWorks{work: videoWork()}
	cache := &fakeWorkCache{}

	svc := newTestService(t, decoder, media, works, cache)
	err := svc.ProcessJob(context.Background(), &models.ThumbnailJob{ID: "j1", WorkID: 5})
	require.NoError(t, err)

	require.Len(t, media.uploaded, 1)
	assert.True(t, strings.HasPrefix(works.key, "works/5/thumbnails/"))
	assert.Contains(t, media.uploaded, works.key)
	assert.InDelta(t, 45, works.timestamp, 0.01)
	assert.Greater(t, works.score, 0.0)
	assert.Equal(t, []string{"works/5/thumbnails/old.jpg"}, media.deleted)
	assert.Equal(t, []int64{5}, cache.invalidated)
	assert.Equal(t, 1, decoder.closed)
	assertTempRemoved(t, media)
}

func TestProcessJobManual(t *testing.T) {
	decoder := newFakeDecoder(20, func(ts float64, w, h int) image.Image {
		return uniformFrame(w, h, 120)
	})
	media := newFakeMedia()
	works := &fakeWorks{work: videoWork()}

	ts := 12.0
	svc := newTestService(t, decoder, media, works, &fakeWorkCache{})
	require.NoError(t, svc.ProcessJob(context.Background(), &models.ThumbnailJob{ID: "j2", WorkID: 5, Timestamp: &ts}))

	assert.Equal(t, []float64{12}, decoder.requested)
	assert.Equal(t, 12.0, works.timestamp)
	assert.Equal(t, ManualScore, works.score)
}

func TestProcessJobDecodeFailure(t *testing.T) {
	decoder := newFakeDecoder(100, sharpAround(45))
	decoder.failAt = 3
	media := newFakeMedia()
	works := &fakeWorks{work: videoWork()}
	cache := &fakeWorkCache{}

	svc := newTestService(t, decoder, media, works, cache)
	err := svc.ProcessJob(context.Background(), &models.ThumbnailJob{ID: "j3", WorkID: 5})

	assert.ErrorIs(t, err, ErrDecode)
	assert.Empty(t, media.uploaded)
	assert.Empty(t, works.key)
	assert.Empty(t, cache.invalidated)
	assert.Equal(t, 1, decoder.closed)
	assertTempRemoved(t, media)
}

func TestProcessJobDownloadFailure(t *testing.T) {
	media := newFakeMedia()
	media.downloadErr = errors.New("bucket unreachable")

	svc := newTestService(t, newFakeDecoder(10, sharpAround(5)), media, &fakeWorks{work: videoWork()}, nil)
	err := svc.ProcessJob(context.Background(), &models.ThumbnailJob{ID: "j4", WorkID: 5})

	assert.Error(t, err)
	assertTempRemoved(t, media)
}

func TestProcessJobDropsMissingWork(t *testing.T) {
	decoder := newFakeDecoder(10, sharpAround(5))
	works := &fakeWorks{getErr: fmt.Errorf("work 5: %w", database.ErrNotFound)}

	svc := newTestService(t, decoder, newFakeMedia(), works, nil)
	assert.NoError(t, svc.ProcessJob(context.Background(), &models.ThumbnailJob{ID: "j5", WorkID: 5}))
	assert.Zero(t, decoder.opened)
}

func TestProcessJobDropsNonVideo(t *testing.T) {
	decoder := newFakeDecoder(10, sharpAround(5))
	works := &fakeWorks{work: &models.Work{ID: 5, Kind: models.WorkKindImage, MediaKey: "works/5/media/a.png"}}

	svc := newTestService(t, decoder, newFakeMedia(), works, nil)
	assert.NoError(t, svc.ProcessJob(context.Background(), &models.ThumbnailJob{ID: "j6", WorkID: 5}))
	assert.Zero(t, decoder.opened)
}

func TestProcessJobUpdateFailureRemovesUpload(t *testing.T) {
	media := newFakeMedia()
	works := &fakeWorks{work: videoWork(), updateErr: errors.New("db down")}

	svc := newTestService(t, newFakeDecoder(10, sharpAround(5)), media, works, nil)
	err := svc.ProcessJob(context.Background(), &models.ThumbnailJob{ID: "j7", WorkID: 5})

	assert.Error(t, err)
	require.Len(t, media.deleted, 1)
	assert.Contains(t, media.uploaded, media.deleted[0])
}
