package job

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	j := New()

	assert.True(t, strings.HasPrefix(j.ID, "export-"))
	assert.Equal(t, StatusQueued, j.Status)
	assert.False(t, j.CreatedAt.IsZero())
	assert.False(t, j.IsTerminal())
}

func TestTransitions(t *testing.T) {
	t.Run("queued to running to completed", func(t *testing.T) {
		j := NewWithID("export-test")
		require.NoError(t, j.Start())
		assert.Equal(t, StatusRunning, j.GetStatus())
		assert.False(t, j.StartedAt.IsZero())

		require.NoError(t, j.Complete())
		assert.Equal(t, StatusCompleted, j.GetStatus())
		assert.False(t, j.CompletedAt.IsZero())
		assert.True(t, j.IsTerminal())
	})

	t.Run("running to failed keeps the error", func(t *testing.T) {
		j := NewWithID("export-test")
		require.NoError(t, j.Start())
		require.NoError(t, j.Fail("encoder exploded"))

		assert.Equal(t, StatusFailed, j.GetStatus())
		assert.Equal(t, "encoder exploded", j.Error)
		assert.True(t, j.IsTerminal())
	})

	t.Run("queued can be cancelled", func(t *testing.T) {
		j := NewWithID("export-test")
		require.NoError(t, j.Cancel())
		assert.Equal(t, StatusCancelled, j.GetStatus())
	})

	t.Run("cannot complete without running", func(t *testing.T) {
		j := NewWithID("export-test")
		assert.ErrorIs(t, j.Complete(), ErrInvalidTransition)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		j := NewWithID("export-test")
		require.NoError(t, j.Start())
		require.NoError(t, j.Complete())

		assert.ErrorIs(t, j.Start(), ErrInvalidTransition)
		assert.ErrorIs(t, j.Cancel(), ErrInvalidTransition)
		assert.ErrorIs(t, j.Fail("late"), ErrInvalidTransition)
	})
}

func TestUpdateProgress(t *testing.T) {
	j := NewWithID("export-test")

	j.UpdateProgress(42)
	assert.Equal(t, 42, j.Progress)

	j.UpdateProgress(-5)
	assert.Equal(t, 0, j.Progress)

	j.UpdateProgress(150)
	assert.Equal(t, 100, j.Progress)
}

func TestSetOutput(t *testing.T) {
	j := NewWithID("export-test")
	j.SetOutput("/tmp/storybook/export-test.mp4", "https://bucket.s3.eu-west-1.amazonaws.com/x.mp4")

	assert.Equal(t, "/tmp/storybook/export-test.mp4", j.OutputPath)
	assert.Equal(t, "https://bucket.s3.eu-west-1.amazonaws.com/x.mp4", j.VideoURL)
}

func TestClone(t *testing.T) {
	j := NewWithID("export-test")
	j.Title = "Luna and the Moon"
	j.PageCount = 10
	require.NoError(t, j.Start())

	clone := j.Clone()
	assert.Equal(t, j.ID, clone.ID)
	assert.Equal(t, j.Title, clone.Title)
	assert.Equal(t, j.PageCount, clone.PageCount)
	assert.Equal(t, StatusRunning, clone.Status)

	// Mutating the clone must not affect the original.
	clone.Title = "changed"
	assert.Equal(t, "Luna and the Moon", j.Title)
}
