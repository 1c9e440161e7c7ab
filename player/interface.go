package player

import (
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
)

// Player defines the playback controls of a music server.
// Every call is queued on the command connection and completes through the
// returned future.
type Player interface {
	// Play starts or resumes playback
	Play() *mpd.Future[struct{}]

	// PlayPosition starts playback at a queue position
	PlayPosition(pos int) *mpd.Future[struct{}]

	// PlayID starts playback of the queue entry with the given id
	PlayID(id int) *mpd.Future[struct{}]

	// Pause sets or clears the pause state
	Pause(paused bool) *mpd.Future[struct{}]

	// Toggle pauses when playing and plays otherwise
	Toggle() *mpd.Future[struct{}]

	Stop() *mpd.Future[struct{}]
	Next() *mpd.Future[struct{}]
	Previous() *mpd.Future[struct{}]

	// Seek jumps within the current song
	Seek(seconds float64) *mpd.Future[struct{}]

	// SetVolume sets the volume, 0 to 100
	SetVolume(volume int) *mpd.Future[struct{}]

	// ChangeVolume adds delta to the volume
	ChangeVolume(delta int) *mpd.Future[struct{}]

	SetRandom(on bool) *mpd.Future[struct{}]
	SetConsume(on bool) *mpd.Future[struct{}]
	SetSingle(on bool) *mpd.Future[struct{}]

	// SetRepeat switches repeat and single together
	SetRepeat(mode domain.RepeatMode) *mpd.Future[struct{}]

	// Status returns the player status with the current song
	Status() *mpd.Future[domain.PlayerStatus]
}
