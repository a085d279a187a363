package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldermere/storefront/internal/store"
)

type account struct {
	store.Meta

	Name  string   `json:"name"`
	Email string   `json:"email"`
	Score int      `json:"score"`
	Tags  []string `json:"tags"`
}

func seedAccounts(t *testing.T, m *store.Memory[*account], docs ...*account) {
	t.Helper()
	for _, doc := range docs {
		_, err := m.Insert(context.Background(), doc)
		require.NoError(t, err)
	}
}

func Test_Memory_InsertAndFindByID(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()

	created, err := m.Insert(ctx, &account{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Rev)

	found, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Name)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, int64(1), found.Rev)
}

func Test_Memory_FindByID_Missing(t *testing.T) {
	m := store.NewMemory[*account]()
	_, err := m.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNoDocument)
}

func Test_Memory_Find_FilterAndSort(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()
	seedAccounts(t, m,
		&account{Name: "Ada", Score: 30, Tags: []string{"Staff"}},
		&account{Name: "Brin", Score: 10, Tags: []string{"guest"}},
		&account{Name: "Cass", Score: 20, Tags: []string{"staff", "admin"}},
	)

	got, err := m.Find(ctx, store.Query{
		Filter: store.Filter{}.Where("score", store.OpGte, 15),
		Sort:   "score",
		Order:  store.SortDesc,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0].Name)
	assert.Equal(t, "Cass", got[1].Name)
}

func Test_Memory_Find_ContainsFoldOnList(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()
	seedAccounts(t, m,
		&account{Name: "Ada", Tags: []string{"Staff"}},
		&account{Name: "Brin", Tags: []string{"guest"}},
	)

	got, err := m.Find(ctx, store.Query{
		Filter: store.Filter{}.Where("tags", store.OpContainsFold, "staff"),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].Name)
}

func Test_Memory_Find_AnyMatchesDisjunctively(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()
	seedAccounts(t, m,
		&account{Name: "Ada"},
		&account{Name: "Brin"},
		&account{Name: "Cass"},
	)

	filter := store.Filter{}.
		OrWhere("name", store.OpContainsFold, "ada").
		OrWhere("name", store.OpContainsFold, "cass")
	got, err := m.Find(ctx, store.Query{Filter: filter})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func Test_Memory_Find_TiedSortKeysOrderDeterministically(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()
	for i := 0; i < 10; i++ {
		seedAccounts(t, m, &account{Name: "u", Score: 7})
	}

	first, err := m.Find(ctx, store.Query{Sort: "score", Order: store.SortDesc})
	require.NoError(t, err)
	require.Len(t, first, 10)

	// Equal sort keys tiebreak on id, so repeated queries agree and paging
	// through ties neither skips nor repeats rows.
	for run := 0; run < 5; run++ {
		again, err := m.Find(ctx, store.Query{Sort: "score", Order: store.SortDesc})
		require.NoError(t, err)
		require.Len(t, again, 10)
		for i := range first {
			assert.Equal(t, first[i].ID, again[i].ID)
		}
	}
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ID, first[i].ID)
	}

	var paged []string
	for skip := 0; skip < 10; skip += 3 {
		page, err := m.Find(ctx, store.Query{Sort: "score", Order: store.SortDesc, Skip: skip, Limit: 3})
		require.NoError(t, err)
		for _, doc := range page {
			paged = append(paged, doc.ID)
		}
	}
	require.Len(t, paged, 10)
	for i, doc := range first {
		assert.Equal(t, doc.ID, paged[i])
	}
}

func Test_Memory_Find_SkipAndLimit(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()
	for i := 1; i <= 5; i++ {
		seedAccounts(t, m, &account{Name: "u", Score: i})
	}

	got, err := m.Find(ctx, store.Query{Sort: "score", Order: store.SortAsc, Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Score)
	assert.Equal(t, 4, got[1].Score)

	// Skip past the end yields an empty result, not an error.
	got, err = m.Find(ctx, store.Query{Skip: 50})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func Test_Memory_Count(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()
	seedAccounts(t, m,
		&account{Name: "Ada", Score: 30},
		&account{Name: "Brin", Score: 10},
	)

	n, err := m.Count(ctx, store.Filter{}.Where("score", store.OpLte, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.Count(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func Test_Memory_UpdateByID_RevisionConflict(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()

	created, err := m.Insert(ctx, &account{Name: "Ada"})
	require.NoError(t, err)

	first, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)

	first.Name = "Ada Prime"
	updated, err := m.UpdateByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Rev)

	// The second copy still carries rev 1 and must lose the race.
	second.Name = "Ada Stale"
	_, err = m.UpdateByID(ctx, second)
	assert.ErrorIs(t, err, store.ErrRevMismatch)

	final, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Prime", final.Name)
}

func Test_Memory_UpdateByID_Missing(t *testing.T) {
	m := store.NewMemory[*account]()
	doc := &account{Name: "ghost"}
	doc.ID = "missing"
	_, err := m.UpdateByID(context.Background(), doc)
	assert.ErrorIs(t, err, store.ErrNoDocument)
}

func Test_Memory_UniqueField(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]("email")

	first, err := m.Insert(ctx, &account{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = m.Insert(ctx, &account{Name: "Imposter", Email: "ada@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	other, err := m.Insert(ctx, &account{Name: "Brin", Email: "brin@example.com"})
	require.NoError(t, err)

	// Updating onto a taken value is rejected too.
	other.Email = "ada@example.com"
	_, err = m.UpdateByID(ctx, other)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// Updating the holder itself is fine.
	first.Name = "Ada Prime"
	_, err = m.UpdateByID(ctx, first)
	assert.NoError(t, err)
}

func Test_Memory_DeleteByID(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory[*account]()

	created, err := m.Insert(ctx, &account{Name: "Ada"})
	require.NoError(t, err)

	deleted, err := m.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = m.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = m.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNoDocument)
}
