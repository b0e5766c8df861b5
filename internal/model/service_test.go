package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "residential-1-shingle-roofing", Slug(CategoryResidential, 1, "Shingle Roofing"))
	assert.Equal(t, "commercial-4-tpo", Slug(CategoryCommercial, 4, " TPO "))
}

func catalog(res, com []string) *ServiceCatalog {
	c := &ServiceCatalog{}
	for i, n := range res {
		c.Residential = append(c.Residential, Service{ID: i + 1, Name: n})
	}
	for i, n := range com {
		c.Commercial = append(c.Commercial, Service{ID: i + 1, Name: n})
	}
	return c
}

func TestServiceCatalog_Validate(t *testing.T) {
	res := []string{"Shingling", "Metal Roof", "Roof Repair", "Gutters"}
	com := []string{"TPO", "EPDM", "Roof Coating", "Flat Roof"}

	assert.NoError(t, catalog(res, com).Validate(nil))

	tests := []struct {
		name string
		c    *ServiceCatalog
	}{
		{"too few", catalog(res[:3], com)},
		{"duplicate", catalog([]string{"Gutters", "gutters", "Roof Repair", "Shingling"}, com)},
		{"too many words", catalog([]string{"Very Long Service Name", "Gutters", "Roof Repair", "Shingling"}, com)},
		{"empty name", catalog(res, []string{"", "EPDM", "TPO", "Flat Roof"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.c.Validate(nil))
		})
	}

	bad := catalog(res, com)
	bad.Residential[2].ID = 7
	assert.Error(t, bad.Validate(nil))

	onlyTPO := func(cat Category, name string) bool { return cat == CategoryResidential || name == "TPO" }
	assert.Error(t, catalog(res, com).Validate(onlyTPO))
}

func TestRunReport_Failed(t *testing.T) {
	r := &RunReport{Stages: []StageResult{{Status: StageStatusComplete}}}
	assert.False(t, r.Failed())
	r.Stages = append(r.Stages, StageResult{Status: StageStatusSkipped})
	assert.True(t, r.Failed())
	r.Stages[1].Status = StageStatusFailed
	assert.True(t, r.Failed())
}

func TestStageResult_AddFallback(t *testing.T) {
	var r StageResult
	r.AddFallback(OK())
	r.AddFallback(Fallback("x", ReasonNoKey, nil))
	assert.Len(t, r.Fallbacks, 1)
	assert.True(t, r.Fallbacks[0].IsFallback())
}

func TestOutcomeKinds(t *testing.T) {
	assert.False(t, OK().IsFallback())
	assert.False(t, OK().IsFatal())

	f := Fatal("images.catalog", errors.New("read-only"))
	assert.True(t, f.IsFatal())
	assert.False(t, f.IsFallback())

	var r StageResult
	r.AddFallback(f)
	assert.Empty(t, r.Fallbacks)
}

func TestStageResultDurationJSON(t *testing.T) {
	b, err := json.Marshal(StageResult{Number: 1, Duration: 1500 * time.Millisecond})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.EqualValues(t, 1.5e9, got["duration_ns"])
}
