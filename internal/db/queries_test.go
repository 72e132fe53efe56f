package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/wish"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestInsert_AssignsID(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	id1, inserted, err := Insert(ctx, database, wish.Wish{Title: "Bike"})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NotZero(t, id1)

	id2, inserted, err := Insert(ctx, database, wish.Wish{Title: "Kite"})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NotEqual(t, id1, id2)
	require.Greater(t, id2, id1)
}

func TestInsert_DuplicateIDIgnored(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	id, inserted, err := Insert(ctx, database, wish.Wish{ID: 5, Title: "First"})
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, int64(5), id)

	id, inserted, err = Insert(ctx, database, wish.Wish{ID: 5, Title: "Second"})
	require.NoError(t, err, "conflicting insert must not be an error")
	require.False(t, inserted)
	require.Equal(t, int64(5), id)

	items, err := ListAll(ctx, database)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "First", items[0].Title)
}

func TestListAll_Ordered(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	items, err := ListAll(ctx, database)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)

	for _, title := range []string{"a", "b", "c"} {
		_, _, err := Insert(ctx, database, wish.Wish{Title: title})
		require.NoError(t, err)
	}

	items, err = ListAll(ctx, database)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Title)
	assert.Equal(t, "b", items[1].Title)
	assert.Equal(t, "c", items[2].Title)
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	id, _, err := Insert(ctx, database, wish.Wish{Title: "Bike", Description: "Red"})
	require.NoError(t, err)

	w, err := GetByID(ctx, database, id)
	require.NoError(t, err)
	assert.Equal(t, wish.Wish{ID: id, Title: "Bike", Description: "Red"}, *w)

	_, err = GetByID(ctx, database, id+100)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	id, _, err := Insert(ctx, database, wish.Wish{Title: "Bike", Description: "Red"})
	require.NoError(t, err)
	other, _, err := Insert(ctx, database, wish.Wish{Title: "Kite"})
	require.NoError(t, err)

	changed, err := Update(ctx, database, wish.Wish{ID: id, Title: "E-Bike", Description: "Blue"})
	require.NoError(t, err)
	require.True(t, changed)

	w, err := GetByID(ctx, database, id)
	require.NoError(t, err)
	assert.Equal(t, wish.Wish{ID: id, Title: "E-Bike", Description: "Blue"}, *w)

	// Other row untouched
	o, err := GetByID(ctx, database, other)
	require.NoError(t, err)
	assert.Equal(t, "Kite", o.Title)
}

func TestUpdate_MissingIsNoop(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	id, _, err := Insert(ctx, database, wish.Wish{Title: "Bike"})
	require.NoError(t, err)

	changed, err := Update(ctx, database, wish.Wish{ID: id + 1, Title: "Ghost"})
	require.NoError(t, err)
	require.False(t, changed)

	items, err := ListAll(ctx, database)
	require.NoError(t, err)
	require.Equal(t, []wish.Wish{{ID: id, Title: "Bike"}}, items)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)

	id1, _, err := Insert(ctx, database, wish.Wish{Title: "Bike"})
	require.NoError(t, err)
	id2, _, err := Insert(ctx, database, wish.Wish{Title: "Kite"})
	require.NoError(t, err)

	deleted, err := Delete(ctx, database, id1)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = Delete(ctx, database, id1)
	require.NoError(t, err)
	require.False(t, deleted, "second delete is a no-op")

	items, err := ListAll(ctx, database)
	require.NoError(t, err)
	require.Equal(t, []wish.Wish{{ID: id2, Title: "Kite"}}, items)

	n, err := Count(ctx, database)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestQueries_ClosedDB(t *testing.T) {
	ctx := context.Background()
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	database.Close()

	_, err = ListAll(ctx, database)
	require.True(t, errors.Is(err, errors.ErrInternal))

	_, _, err = Insert(ctx, database, wish.Wish{Title: "x"})
	require.True(t, errors.Is(err, errors.ErrInternal))
}
