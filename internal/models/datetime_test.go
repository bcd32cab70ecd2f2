package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	bst := time.FixedZone("BST", 3600)
	want := time.Date(2030, 5, 31, 13, 50, 0, 0, time.UTC)

	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"2030-05-31 14:50", false},
		{"2030-05-31 14:50:00", false},
		{"2030-05-31T14:50", false},
		{"2030-05-31T14:50:00", false},
		{"2030-05-31T14:50:00+01:00", false},
		{"2030-05-31T13:50:00Z", false},
		{"  2030-05-31 14:50\n", false},
		{"31/05/2030 14:50", true},
		{"2030-05-31", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDateTime(tt.raw, bst)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestJourneyPlanCacheHit(t *testing.T) {
	plan := &JourneyPlan{Legs: []LegResult{{Source: SourceSubRoute}, {Source: SourceSegment}}}
	assert.True(t, plan.CacheHit())

	plan.Legs = append(plan.Legs, LegResult{Source: SourceUpstream})
	assert.False(t, plan.CacheHit())
}
