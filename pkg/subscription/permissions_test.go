package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/resumekit/pkg/subscription"
)

func TestCanCreateResume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level subscription.SubscriptionLevel
		count int64
		want  bool
	}{
		{"free with no resumes", subscription.LevelFree, 0, true},
		{"free at limit", subscription.LevelFree, 1, false},
		{"one_time with no resumes", subscription.LevelOneTime, 0, true},
		{"one_time at limit", subscription.LevelOneTime, 1, false},
		{"pro under limit", subscription.LevelPro, 2, true},
		{"pro at limit", subscription.LevelPro, 3, false},
		{"pro_plus with no resumes", subscription.LevelProPlus, 0, true},
		{"pro_plus with many resumes", subscription.LevelProPlus, 10000, true},
		{"unknown level treated as free", subscription.SubscriptionLevel("legacy"), 1, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.CanCreateResume(tt.level, tt.count))
		})
	}
}

func TestCanUseAITools(t *testing.T) {
	t.Parallel()

	assert.False(t, subscription.CanUseAITools(subscription.LevelFree))
	assert.True(t, subscription.CanUseAITools(subscription.LevelOneTime))
	assert.True(t, subscription.CanUseAITools(subscription.LevelPro))
	assert.True(t, subscription.CanUseAITools(subscription.LevelProPlus))
}

func TestCanUseCustomizations(t *testing.T) {
	t.Parallel()

	assert.False(t, subscription.CanUseCustomizations(subscription.LevelFree))
	assert.False(t, subscription.CanUseCustomizations(subscription.LevelOneTime))
	assert.False(t, subscription.CanUseCustomizations(subscription.LevelPro))
	assert.True(t, subscription.CanUseCustomizations(subscription.LevelProPlus))
}

func TestMaxResumesFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1), subscription.MaxResumesFor(subscription.LevelFree))
	assert.Equal(t, int64(1), subscription.MaxResumesFor(subscription.LevelOneTime))
	assert.Equal(t, int64(3), subscription.MaxResumesFor(subscription.LevelPro))
	assert.Equal(t, subscription.Unlimited, subscription.MaxResumesFor(subscription.LevelProPlus))
}

func TestStatusKeepsGrantAlive(t *testing.T) {
	t.Parallel()

	alive := []subscription.Status{
		subscription.StatusActive,
		subscription.StatusTrialing,
		subscription.StatusPastDue,
	}
	for _, status := range alive {
		assert.True(t, status.KeepsGrantAlive(), "status %s should keep grant alive", status)
	}

	dead := []subscription.Status{
		subscription.StatusCanceled,
		subscription.StatusUnpaid,
		subscription.StatusIncomplete,
		subscription.StatusPaused,
		subscription.Status("anything_else"),
	}
	for _, status := range dead {
		assert.False(t, status.KeepsGrantAlive(), "status %s should not keep grant alive", status)
	}
}
