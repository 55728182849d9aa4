package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlipTwiceIsNoOp(t *testing.T) {
	b := New()
	require.NoError(t, b.Flip(60, 60))
	init1, err := b.IsInitialized(60, 60)
	require.NoError(t, err)
	require.True(t, init1)

	require.NoError(t, b.Flip(60, 60))
	init2, err := b.IsInitialized(60, 60)
	require.NoError(t, err)
	require.False(t, init2)
	require.Empty(t, b.words)
}

func TestFlipRejectsMisalignedTick(t *testing.T) {
	b := New()
	err := b.Flip(61, 60)
	require.ErrorIs(t, err, ErrNotOnSpacing)
}

func TestNextInitializedWithinWordSearchLeftFindsSet(t *testing.T) {
	b := New()
	require.NoError(t, b.Flip(-120, 60))
	require.NoError(t, b.Flip(60, 60))

	next, found, err := b.NextInitializedWithinWord(120, 60, true)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int32(60), next)
}

func TestNextInitializedWithinWordSearchRightFindsSet(t *testing.T) {
	b := New()
	require.NoError(t, b.Flip(120, 60))

	next, found, err := b.NextInitializedWithinWord(-60, 60, false)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int32(120), next)
}

func TestNextInitializedWithinWordNoneFoundReturnsBoundary(t *testing.T) {
	b := New()
	_, found, err := b.NextInitializedWithinWord(0, 60, true)
	require.NoError(t, err)
	require.False(t, found)
}
