package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("save and find", func(t *testing.T) {
		repo := NewMemoryRepository()
		j := NewWithID("export-1")
		j.Title = "A Tale"

		require.NoError(t, repo.Save(ctx, j))

		found, err := repo.FindByID(ctx, "export-1")
		require.NoError(t, err)
		assert.Equal(t, "A Tale", found.Title)
	})

	t.Run("find missing job", func(t *testing.T) {
		repo := NewMemoryRepository()
		_, err := repo.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("save clones to prevent aliasing", func(t *testing.T) {
		repo := NewMemoryRepository()
		j := NewWithID("export-2")
		require.NoError(t, repo.Save(ctx, j))

		j.Title = "mutated after save"

		found, err := repo.FindByID(ctx, "export-2")
		require.NoError(t, err)
		assert.Empty(t, found.Title)
	})

	t.Run("list", func(t *testing.T) {
		repo := NewMemoryRepository()
		require.NoError(t, repo.Save(ctx, NewWithID("export-a")))
		require.NoError(t, repo.Save(ctx, NewWithID("export-b")))

		jobs, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})

	t.Run("delete", func(t *testing.T) {
		repo := NewMemoryRepository()
		require.NoError(t, repo.Save(ctx, NewWithID("export-c")))

		require.NoError(t, repo.Delete(ctx, "export-c"))
		_, err := repo.FindByID(ctx, "export-c")
		assert.ErrorIs(t, err, ErrJobNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, "export-c"), ErrJobNotFound)
	})
}
