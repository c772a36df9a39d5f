package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mention_tracker/internal/domain"
)

func TestAggregate(t *testing.T) {
	t.Run("empty input yields nil", func(t *testing.T) {
		assert.Nil(t, Aggregate(nil))
		assert.Nil(t, Aggregate([]*domain.Mention{}))
	})

	t.Run("totals and distinct hashtags in first-seen order", func(t *testing.T) {
		mentions := []*domain.Mention{
			{Views: 100, Likes: 10, Hashtags: []string{"#bracketology", "#march"}},
			{Views: 200, Likes: 20, Hashtags: []string{"#madness", "#bracketology"}},
		}

		stats := Aggregate(mentions)

		assert.Equal(t, 2, stats.NewMentions)
		assert.Equal(t, int64(300), stats.TotalViews)
		assert.Equal(t, int64(30), stats.TotalLikes)
		assert.Equal(t, []string{"#bracketology", "#march", "#madness"}, stats.Hashtags)
	})
}
