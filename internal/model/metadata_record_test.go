package model

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devrev/timeline/internal/errors"
)

func TestNewMetadataRecord(t *testing.T) {
	rec, err := NewMetadataRecord("scope-x", 50, "#AABB01", map[string]interface{}{"title": "standup"})

	require.NoError(t, err)
	assert.Equal(t, "scope-x", rec.Scope)
	assert.Equal(t, int64(50), rec.Start)
	assert.Equal(t, TypeMetadata, rec.Type)
	assert.Equal(t, "#AABB01", rec.Color)
	assert.Equal(t, "standup", rec.Metadata["title"])
	assert.Equal(t, "scope-x__METADATA", rec.Namespace())
}

func TestNewMetadataRecord_NegativeStart(t *testing.T) {
	rec, err := NewMetadataRecord("scope-x", -5, "#AABB01", map[string]interface{}{})

	assert.Nil(t, rec)
	assert.Equal(t, errors.ErrCodeInvalidStart, errors.GetCode(err))
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name  string
		color string
		want  string
	}{
		{"with hash", "#AABB01", "#AABB01"},
		{"without hash", "AABB01", "#AABB01"},
		{"lowercase", "aabb01", "#aabb01"},
		{"mixed case", "aAbB01", "#aAbB01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateColor(tt.color)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateColor_Invalid(t *testing.T) {
	for _, color := range []string{"red", "#12345", "#1234567", "#GGGGGG", "##AABB01", "# ABB01"} {
		got, err := ValidateColor(color)

		assert.Empty(t, got)
		require.Error(t, err, "color %q should be rejected", color)
		assert.Equal(t, errors.ErrCodeInvalidColor, errors.GetCode(err))
		assert.Contains(t, err.Error(), color)
	}
}

func TestValidateColor_EmptyGetsRandom(t *testing.T) {
	pattern := regexp.MustCompile(`^#[0-9a-f]{6}$`)

	for i := 0; i < 20; i++ {
		got, err := ValidateColor("")
		require.NoError(t, err)
		assert.Regexp(t, pattern, got)
	}
}

func TestValidateMetadata(t *testing.T) {
	assert.NoError(t, ValidateMetadata(map[string]interface{}{}))
	assert.NoError(t, ValidateMetadata(map[string]interface{}{"k": "v"}))

	err := ValidateMetadata(nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidMetadata, errors.GetCode(err))
}

func TestMetadataRecord_JSONRoundTrip(t *testing.T) {
	rec, err := NewMetadataRecord("scope-y", 75, "00ff00", map[string]interface{}{
		"title":    "retro",
		"capacity": float64(12),
	})
	require.NoError(t, err)
	rec.UpdatedAt = 1724457600000000000

	data, err := rec.AsJSON()
	require.NoError(t, err)

	decoded, err := MetadataRecordFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
	assert.Equal(t, "#00ff00", decoded.Color)
}

func TestMetadataRecord_MarshalForcesDiscriminator(t *testing.T) {
	rec, err := NewMetadataRecord("scope-y", 10, "#112233", map[string]interface{}{})
	require.NoError(t, err)

	// The discriminator is fixed even if a caller tampers with the field
	rec.Type = "sorted"

	data, err := rec.AsJSON()
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, TypeMetadata, fields["type"])
}
