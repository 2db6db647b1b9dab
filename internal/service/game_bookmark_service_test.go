package service

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/model"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookmarkRepo struct {
	mu        sync.Mutex
	bookmarks []*model.GameBookmark
}

func (r *fakeBookmarkRepo) ListBookmarks(_ context.Context, userID uint64, limit, offset int) ([]*model.GameBookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*model.GameBookmark, 0)
	for _, b := range r.bookmarks {
		if b.UserID == userID {
			res = append(res, b)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if offset >= len(res) {
		return []*model.GameBookmark{}, nil
	}
	end := offset + limit
	if end > len(res) {
		end = len(res)
	}
	return res[offset:end], nil
}

func (r *fakeBookmarkRepo) CountBookmarks(_ context.Context, userID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookmarks {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookmarkRepo) GetBookmark(_ context.Context, userID uint64, gameID int64) (*model.GameBookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookmarks {
		if b.UserID == userID && b.GameID == gameID {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBookmarkRepo) CreateBookmark(_ context.Context, bookmark *model.GameBookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookmarks = append(r.bookmarks, bookmark)
	return nil
}

func (r *fakeBookmarkRepo) DeleteBookmark(_ context.Context, userID uint64, gameID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.bookmarks[:0]
	for _, b := range r.bookmarks {
		if b.UserID != userID || b.GameID != gameID {
			kept = append(kept, b)
		}
	}
	r.bookmarks = kept
	return nil
}

func TestGameBookmarkService_AddListRemove(t *testing.T) {
	ctx := context.Background()
	repo := &fakeBookmarkRepo{}
	svc := NewGameBookmarkService(repo)

	require.NoError(t, svc.AddBookmark(ctx, 1, &dto.AddBookmarkReq{
		GameID: 3498,
		Name:   "Grand Theft Auto V",
		Slug:   "grand-theft-auto-v",
		Genres: []string{"Action", "Adventure"},
	}))
	time.Sleep(time.Millisecond)
	require.NoError(t, svc.AddBookmark(ctx, 1, &dto.AddBookmarkReq{GameID: 3328, Name: "The Witcher 3"}))
	require.NoError(t, svc.AddBookmark(ctx, 2, &dto.AddBookmarkReq{GameID: 3498, Name: "Grand Theft Auto V"}))

	err := svc.AddBookmark(ctx, 1, &dto.AddBookmarkReq{GameID: 3498, Name: "Grand Theft Auto V"})
	assert.ErrorIs(t, err, ErrBookmarkExist)

	page, err := svc.ListBookmarks(ctx, 1, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(3328), page.Items[0].GameID)
	assert.Empty(t, page.Items[0].Genres)
	assert.NotNil(t, page.Items[0].Genres)
	assert.Equal(t, []string{"Action", "Adventure"}, page.Items[1].Genres)

	page, err = svc.ListBookmarks(ctx, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(3498), page.Items[0].GameID)

	require.NoError(t, svc.RemoveBookmark(ctx, 1, 3498))
	assert.ErrorIs(t, svc.RemoveBookmark(ctx, 1, 3498), ErrBookmarkNotFound)

	page, err = svc.ListBookmarks(ctx, 2, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestGameBookmarkService_Limit(t *testing.T) {
	ctx := context.Background()
	repo := &fakeBookmarkRepo{}
	for i := 0; i < MaxBookmarkCount; i++ {
		repo.bookmarks = append(repo.bookmarks, &model.GameBookmark{UserID: 1, GameID: int64(i + 1)})
	}
	svc := NewGameBookmarkService(repo)

	err := svc.AddBookmark(ctx, 1, &dto.AddBookmarkReq{GameID: 99999, Name: "one too many"})
	assert.ErrorIs(t, err, ErrBookmarkLimit)

	err = svc.AddBookmark(ctx, 1, &dto.AddBookmarkReq{GameID: 1, Name: "already there"})
	assert.ErrorIs(t, err, ErrBookmarkExist)

	err = svc.AddBookmark(ctx, 1, &dto.AddBookmarkReq{GameID: 5, Name: "  "})
	assert.ErrorIs(t, err, ErrParamInvalid)
}
