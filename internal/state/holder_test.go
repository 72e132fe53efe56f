package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/wishlist/internal/dao"
	"github.com/hpungsan/wishlist/internal/db"
	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/repository"
	"github.com/hpungsan/wishlist/internal/wish"
)

const waitTimeout = 2 * time.Second

func setupHolder(t *testing.T) (*Holder, *dao.SQLite) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	d := dao.New(database, nil)
	h := New(repository.New(d), nil, WithLookupTimeout(150*time.Millisecond))
	t.Cleanup(h.Close)
	return h, d
}

func waitLoaded(t *testing.T, h *Holder) {
	t.Helper()
	select {
	case <-h.Loaded():
	case <-time.After(waitTimeout):
		t.Fatal("holder never loaded")
	}
}

func awaitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for result")
	}
	return Result{}
}

func countRows(t *testing.T, d *dao.SQLite) []wish.Wish {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	select {
	case items := <-d.ListAll(ctx):
		return items
	case <-time.After(waitTimeout):
		t.Fatal("timed out listing")
	}
	return nil
}

// blockingRepo never emits, to observe the holder before its first load.
type blockingRepo struct {
	Repository
}

func (blockingRepo) Wishes(ctx context.Context) <-chan []wish.Wish {
	ch := make(chan []wish.Wish)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

func TestHolder_EmptyBeforeLoad(t *testing.T) {
	h := New(blockingRepo{}, nil)
	defer h.Close()

	got := h.AllWishes()
	require.NotNil(t, got)
	require.Empty(t, got)

	select {
	case <-h.Loaded():
		t.Fatal("Loaded closed without an emission")
	default:
	}
}

func TestHolder_FollowsList(t *testing.T) {
	h, _ := setupHolder(t)
	waitLoaded(t, h)
	require.Empty(t, h.AllWishes())

	res := awaitResult(t, h.AddWish(wish.Wish{Title: "Bike"}))
	require.NoError(t, res.Err)
	require.True(t, res.Changed)
	require.NotZero(t, res.ID)

	require.Eventually(t, func() bool { return len(h.AllWishes()) == 1 }, waitTimeout, 10*time.Millisecond)
	assert.Equal(t, "Bike", h.AllWishes()[0].Title)
}

func TestHolder_OnWishes(t *testing.T) {
	h, _ := setupHolder(t)
	waitLoaded(t, h)

	var mu sync.Mutex
	var seen [][]wish.Wish
	remove := h.OnWishes(func(items []wish.Wish) {
		mu.Lock()
		seen = append(seen, items)
		mu.Unlock()
	})

	// Already loaded, so the current (empty) list is delivered immediately
	mu.Lock()
	require.Len(t, seen, 1)
	require.Empty(t, seen[0])
	mu.Unlock()

	awaitResult(t, h.AddWish(wish.Wish{Title: "Kite"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		last := seen[len(seen)-1]
		return len(last) == 1 && last[0].Title == "Kite"
	}, waitTimeout, 10*time.Millisecond)

	remove()
	mu.Lock()
	n := len(seen)
	mu.Unlock()

	awaitResult(t, h.AddWish(wish.Wish{Title: "Ball"}))
	require.Eventually(t, func() bool { return len(h.AllWishes()) == 2 }, waitTimeout, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, n, len(seen), "removed observer must not be called")
	mu.Unlock()
}

func TestHolder_Drafts(t *testing.T) {
	h := New(blockingRepo{}, nil)
	defer h.Close()

	h.SetTitleDraft("  Bike ")
	h.SetDescriptionDraft("Red")
	assert.Equal(t, "  Bike ", h.TitleDraft())
	assert.Equal(t, "Red", h.DescriptionDraft())
}

func TestHolder_UpdateAndDeleteResults(t *testing.T) {
	h, d := setupHolder(t)

	added := awaitResult(t, h.AddWish(wish.Wish{Title: "Bike"}))
	require.NoError(t, added.Err)

	up := awaitResult(t, h.UpdateWish(wish.Wish{ID: added.ID, Title: "E-Bike"}))
	require.NoError(t, up.Err)
	require.True(t, up.Changed)

	missing := awaitResult(t, h.UpdateWish(wish.Wish{ID: added.ID + 50, Title: "Ghost"}))
	require.NoError(t, missing.Err)
	require.False(t, missing.Changed)

	del := awaitResult(t, h.DeleteWish(wish.Wish{ID: added.ID}))
	require.NoError(t, del.Err)
	require.True(t, del.Changed)

	require.Empty(t, countRows(t, d))
}

func TestHolder_CloseStopsWork(t *testing.T) {
	h, _ := setupHolder(t)
	waitLoaded(t, h)

	h.Close()
	h.Close() // idempotent

	res := awaitResult(t, h.AddWish(wish.Wish{Title: "late"}))
	require.Error(t, res.Err)
	require.True(t, errors.Is(res.Err, errors.ErrInternal))
}

// blockingWrites never lists and holds writes until the holder closes.
type blockingWrites struct {
	blockingRepo
}

func (blockingWrites) AddWish(ctx context.Context, _ wish.Wish) (dao.WriteResult, error) {
	<-ctx.Done()
	return dao.WriteResult{}, ctx.Err()
}
