package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSongEqualIgnoresPlacement(t *testing.T) {
	a := Song{ID: 3, Position: 0, Title: "Blue", Album: "Kind", Artist: "Miles"}
	b := Song{ID: 9, Position: 7, Title: "Blue", Album: "Kind", Artist: "Miles", URI: "other.flac"}
	c := Song{Title: "Blue", Album: "Kind", Artist: "Coltrane"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestEmptySong(t *testing.T) {
	assert.True(t, EmptySong.IsEmpty())
	assert.True(t, NewSong().IsEmpty())
	assert.False(t, NewSong().InQueue())
	assert.False(t, Song{Title: "x"}.IsEmpty())
}

func TestComposeRepeat(t *testing.T) {
	tests := []struct {
		repeat, single bool
		want           RepeatMode
	}{
		{false, false, RepeatOff},
		{false, true, RepeatOff},
		{true, false, RepeatQueue},
		{true, true, RepeatSingle},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComposeRepeat(tt.repeat, tt.single))
	}

	for _, m := range []RepeatMode{RepeatQueue, RepeatSingle, RepeatOff} {
		assert.Equal(t, m, ComposeRepeat(m.Flags()))
	}
}

func TestNewPlayerStatusDefaults(t *testing.T) {
	st := NewPlayerStatus()
	assert.Equal(t, -1, st.Volume)
	assert.Equal(t, -1, st.SongPosition)
	assert.Equal(t, -1, st.NextSongPosition)
	assert.True(t, st.Song.IsEmpty())
	assert.False(t, st.HasCurrentSong())
	assert.Equal(t, Stopped, st.State)
}

func TestEventSet(t *testing.T) {
	set := NewEventSet(EventQueueChanged, EventPlayerChanged)
	assert.True(t, set.Contains(EventQueueChanged))
	assert.False(t, set.Contains(EventVolumeChanged))
	assert.Equal(t, []Event{EventQueueChanged, EventPlayerChanged}, set.Events())
	assert.Len(t, AllEventSet().Events(), len(AllEvents))

	ev, ok := ParseEvent("Queue-Changed")
	assert.True(t, ok)
	assert.Equal(t, EventQueueChanged, ev)
	assert.Equal(t, "volume-changed", EventVolumeChanged.String())
}
