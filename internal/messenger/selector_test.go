package messenger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFollowing() []*User {
	return []*User{
		{ID: userB, DisplayName: "bob"},
		{ID: userC, DisplayName: "carol"},
	}
}

func TestSelectorSelect(t *testing.T) {
	ctx := context.Background()
	s := NewSelector(userA, testFollowing())

	var calls []bool
	s.Subscribe(func(_ context.Context, _ Selection, changed bool) error {
		calls = append(calls, changed)
		return nil
	})

	sel, err := s.Select(ctx, userB)
	require.NoError(t, err)
	assert.Equal(t, ConversationKey(userA, userB), sel.Key)
	require.NotNil(t, sel.Counterpart)
	assert.Equal(t, "bob", sel.Counterpart.DisplayName)

	_, err = s.Select(ctx, userB)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, calls)
}

func TestSelectorUnknownTarget(t *testing.T) {
	s := NewSelector(userA, testFollowing())

	sel, err := s.Select(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, sel.Counterpart)
	assert.Equal(t, ConversationKey(userA, "404"), sel.Key)
}

func TestSelectorEmptyTarget(t *testing.T) {
	ctx := context.Background()
	s := NewSelector(userA, testFollowing())

	_, err := s.Select(ctx, userB)
	require.NoError(t, err)

	var got Selection
	var changed bool
	s.Subscribe(func(_ context.Context, sel Selection, c bool) error {
		got, changed = sel, c
		return nil
	})
	sel, err := s.Select(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sel.Key)
	assert.Nil(t, sel.Counterpart)
	assert.True(t, changed)
	assert.Equal(t, sel, got)
	assert.Equal(t, Selection{}, s.Active())
}

func TestSelectorDefaultTarget(t *testing.T) {
	s := NewSelector(userA, nil)
	assert.Empty(t, s.DefaultTarget())

	s.SetFollowing(testFollowing())
	assert.Equal(t, userB, s.DefaultTarget())
	assert.Len(t, s.Following(), 2)
}

func TestSelectorListenerErrors(t *testing.T) {
	errA := errors.New("a")
	s := NewSelector(userA, testFollowing())
	s.Subscribe(func(context.Context, Selection, bool) error { return errA })
	s.Subscribe(func(context.Context, Selection, bool) error { return nil })

	sel, err := s.Select(context.Background(), userC)
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, sel, s.Active())
}
