package repositories

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain term", "dune", "dune"},
		{"percent", "50% off", `50\% off`},
		{"underscore", "snake_case", `snake\_case`},
		{"backslash", `a\b`, `a\\b`},
		{"backslash before percent", `\%`, `\\\%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.in))
		})
	}
}

func TestCategoryFindOrCreate_Converges(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Categories()

	first, err := repo.FindOrCreate(nil, "Fiction")
	require.NoError(t, err)
	second, err := repo.FindOrCreate(nil, "Fiction")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := repo.Count(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCategoryFindOrCreate_ConcurrentSameName(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Categories()

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			_, errs[idx] = repo.FindOrCreate(nil, "Fiction")
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	count, err := repo.Count(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "all workers must converge on one row")
}
