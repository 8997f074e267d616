package sources

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"dishprice-workers/internal/common/config"
	"dishprice-workers/internal/models"
)

func TestSettingsFromConfig_CapsResultLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"within cap", 3, 3},
		{"at cap", 5, 5},
		{"above cap", 50, config.MaxResultLimit},
		{"unset", 0, config.MaxResultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SettingsFromConfig(config.SourceConfig{DisplayName: "Swiggy", ResultLimit: tt.limit})
			assert.Equal(t, tt.want, s.ResultLimit)
		})
	}
}

func TestLimit(t *testing.T) {
	in := make([]models.CandidateRestaurant, 8)
	for i := range in {
		in[i] = models.CandidateRestaurant{Name: fmt.Sprintf("R%d", i)}
	}

	s := SettingsFromConfig(config.SourceConfig{ResultLimit: 20})
	got := s.Limit(in)
	assert.Len(t, got, config.MaxResultLimit)
	assert.Equal(t, "R0", got[0].Name)
}
