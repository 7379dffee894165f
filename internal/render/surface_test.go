// Package render owns the render engine lifecycle for a display surface.
// It projects graph records into engine elements and guards engine callbacks.
package render

import (
	"testing"

	"github.com/schemascope/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSurface(t *testing.T) {
	s := NewBufferSurface("buf")

	require.NoError(t, s.Draw(Frame{Kind: FrameMount}))
	require.NoError(t, s.Draw(Frame{Kind: FrameViewport, Viewport: &Viewport{Zoom: 1}}))
	require.NoError(t, s.Draw(Frame{Kind: FrameViewport, Viewport: &Viewport{Zoom: 2}}))

	assert.Equal(t, "buf", s.ID())
	assert.Len(t, s.Frames(), 3)
	assert.Equal(t, 2, s.Count(FrameViewport))

	last, ok := s.Last(FrameViewport)
	require.True(t, ok)
	assert.Equal(t, 2.0, last.Viewport.Zoom)

	_, ok = s.Last(FrameClear)
	assert.False(t, ok)
}

func TestHub(t *testing.T) {
	t.Run("late subscriber receives retained state in order", func(t *testing.T) {
		hub := NewHub("h", 4)
		hub.Draw(Frame{Kind: FrameViewport, Viewport: &Viewport{Zoom: 1}})
		hub.Draw(Frame{Kind: FrameMount, Elements: []models.Element{{Group: models.KindNode}}})
		hub.Draw(Frame{Kind: FramePositions})

		frames, cancel := hub.Subscribe()
		defer cancel()

		assert.Equal(t, FrameMount, (<-frames).Kind)
		assert.Equal(t, FramePositions, (<-frames).Kind)
		assert.Len(t, frames, 0)
	})

	t.Run("live frames are forwarded", func(t *testing.T) {
		hub := NewHub("h", 4)
		frames, cancel := hub.Subscribe()
		defer cancel()

		hub.Draw(Frame{Kind: FrameSelection})

		assert.Equal(t, FrameSelection, (<-frames).Kind)
	})

	t.Run("clear drops retained state", func(t *testing.T) {
		hub := NewHub("h", 4)
		hub.Draw(Frame{Kind: FrameMount})
		hub.Draw(Frame{Kind: FrameClear})

		frames, cancel := hub.Subscribe()
		defer cancel()

		assert.Len(t, frames, 0)
	})

	t.Run("cancel detaches and closes", func(t *testing.T) {
		hub := NewHub("h", 4)
		frames, cancel := hub.Subscribe()
		assert.Equal(t, 1, hub.Subscribers())

		cancel()
		cancel()

		_, open := <-frames
		assert.False(t, open)
		assert.Equal(t, 0, hub.Subscribers())
	})

	t.Run("full subscriber does not block draw", func(t *testing.T) {
		hub := NewHub("h", 1)
		_, cancel := hub.Subscribe()
		defer cancel()

		for i := 0; i < 10; i++ {
			assert.NoError(t, hub.Draw(Frame{Kind: FrameSelection}))
		}
	})

	t.Run("subscriber missing a mount is detached and resyncs", func(t *testing.T) {
		hub := NewHub("h", 1)
		frames, cancel := hub.Subscribe()
		defer cancel()

		backlog := cap(frames)
		for i := 0; i < backlog; i++ {
			require.NoError(t, hub.Draw(Frame{Kind: FrameSelection}))
		}
		require.NoError(t, hub.Draw(Frame{Kind: FrameMount, Elements: []models.Element{{Group: models.KindNode}}}))

		for i := 0; i < backlog; i++ {
			assert.Equal(t, FrameSelection, (<-frames).Kind)
		}
		_, open := <-frames
		assert.False(t, open)
		assert.Equal(t, 0, hub.Subscribers())
		assert.False(t, hub.Closed())

		again, cancelAgain := hub.Subscribe()
		defer cancelAgain()
		assert.Equal(t, FrameMount, (<-again).Kind)
	})

	t.Run("subscriber missing a clear is detached", func(t *testing.T) {
		hub := NewHub("h", 1)
		frames, cancel := hub.Subscribe()
		defer cancel()

		for i := 0; i < cap(frames); i++ {
			require.NoError(t, hub.Draw(Frame{Kind: FramePositions}))
		}
		require.NoError(t, hub.Draw(Frame{Kind: FrameClear}))

		for len(frames) > 0 {
			<-frames
		}
		_, open := <-frames
		assert.False(t, open)
	})

	t.Run("close ends every subscription", func(t *testing.T) {
		hub := NewHub("h", 4)
		frames, cancel := hub.Subscribe()
		defer cancel()

		hub.Close()

		_, open := <-frames
		assert.False(t, open)

		late, _ := hub.Subscribe()
		_, open = <-late
		assert.False(t, open)
	})
}
