package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValue(t *testing.T) {
	meta := Metadata{
		"width":    1920,
		"duration": 12.5,
	}

	value, err := meta.Value()
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(value.([]byte), &result))
	assert.Equal(t, 12.5, result["duration"])

	var empty Metadata
	value, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), value)
}

func TestMetadataScan(t *testing.T) {
	var meta Metadata
	require.NoError(t, meta.Scan([]byte(`{"codec":"h264","width":1280}`)))
	assert.Equal(t, "h264", meta["codec"])
	assert.Equal(t, float64(1280), meta["width"])

	var fromString Metadata
	require.NoError(t, fromString.Scan(`{"codec":"vp9"}`))
	assert.Equal(t, "vp9", fromString["codec"])

	var fromNil Metadata
	require.NoError(t, fromNil.Scan(nil))
	assert.NotNil(t, fromNil)
	assert.Empty(t, fromNil)

	var bad Metadata
	assert.Error(t, bad.Scan(42))
}

func TestValidWorkKind(t *testing.T) {
	for _, kind := range []string{"image", "video", "audio", "text", "web"} {
		assert.True(t, ValidWorkKind(kind), kind)
	}
	assert.False(t, ValidWorkKind("sculpture"))
	assert.False(t, ValidWorkKind(""))
}

func TestValidCommissionStatus(t *testing.T) {
	assert.True(t, ValidCommissionStatus(CommissionStatusAccepted))
	assert.False(t, ValidCommissionStatus("archived"))
}

func TestThumbnailJobMode(t *testing.T) {
	job := &ThumbnailJob{WorkID: 1}
	assert.Equal(t, ThumbnailModeAuto, job.Mode())

	ts := 3.5
	job.Timestamp = &ts
	assert.Equal(t, ThumbnailModeManual, job.Mode())
}

func TestIdentityIsAdmin(t *testing.T) {
	var nobody *Identity
	assert.False(t, nobody.IsAdmin())
	assert.False(t, (&Identity{UserID: "u1", Role: UserRoleUser}).IsAdmin())
	assert.True(t, (&Identity{UserID: "u1", Role: UserRoleAdmin}).IsAdmin())
}
