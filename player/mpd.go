package player

import (
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
)

// Client is the part of mpd.Client the player drives
type Client interface {
	Execute(cmd mpd.Command, expectsBody bool) *mpd.Future[mpd.Block]
	ExecuteBatch(cmds []mpd.Command) *mpd.Future[struct{}]
	Status() *mpd.Future[domain.PlayerStatus]
}

// MPDPlayer implements the Player interface on top of a server connection
type MPDPlayer struct {
	client Client
}

// NewMPDPlayer creates a player that sends its commands through client
func NewMPDPlayer(client Client) *MPDPlayer {
	return &MPDPlayer{client: client}
}

func (p *MPDPlayer) run(name string, args ...any) *mpd.Future[struct{}] {
	return mpd.Map(p.client.Execute(mpd.Cmd(name, args...), false), func(mpd.Block) (struct{}, error) {
		return struct{}{}, nil
	})
}

// Play starts or resumes playback
func (p *MPDPlayer) Play() *mpd.Future[struct{}] {
	return p.run("play")
}

// PlayPosition starts playback at a queue position
func (p *MPDPlayer) PlayPosition(pos int) *mpd.Future[struct{}] {
	if pos < 0 {
		return mpd.Failed[struct{}](mpd.InvalidArgument("play", "negative position %d", pos))
	}
	return p.run("play", pos)
}

// PlayID starts playback of a queue entry
func (p *MPDPlayer) PlayID(id int) *mpd.Future[struct{}] {
	if id < 0 {
		return mpd.Failed[struct{}](mpd.InvalidArgument("playid", "negative id %d", id))
	}
	return p.run("playid", id)
}

// Pause sets or clears the pause state
func (p *MPDPlayer) Pause(paused bool) *mpd.Future[struct{}] {
	return p.run("pause", paused)
}

// Toggle pauses when playing and plays otherwise
func (p *MPDPlayer) Toggle() *mpd.Future[struct{}] {
	return mpd.Chain(p.client.Status(), func(st domain.PlayerStatus) *mpd.Future[struct{}] {
		if st.State == domain.Playing {
			return p.Pause(true)
		}
		return p.Play()
	})
}

// Stop stops playback
func (p *MPDPlayer) Stop() *mpd.Future[struct{}] {
	return p.run("stop")
}

func (p *MPDPlayer) Next() *mpd.Future[struct{}] {
	return p.run("next")
}

func (p *MPDPlayer) Previous() *mpd.Future[struct{}] {
	return p.run("previous")
}

// Seek jumps to an absolute offset within the current song
func (p *MPDPlayer) Seek(seconds float64) *mpd.Future[struct{}] {
	if seconds < 0 {
		return mpd.Failed[struct{}](mpd.InvalidArgument("seekcur", "negative offset %v", seconds))
	}
	return p.run("seekcur", seconds)
}

// SetVolume sets the mixer volume
func (p *MPDPlayer) SetVolume(volume int) *mpd.Future[struct{}] {
	if volume < 0 || volume > 100 {
		return mpd.Failed[struct{}](mpd.InvalidArgument("setvol", "volume %d outside 0..100", volume))
	}
	return p.run("setvol", volume)
}

// ChangeVolume adds delta to the current volume, clamped to 0..100. Servers
// without a mixer report volume -1, which is an invalid state here.
func (p *MPDPlayer) ChangeVolume(delta int) *mpd.Future[struct{}] {
	return mpd.Chain(p.client.Status(), func(st domain.PlayerStatus) *mpd.Future[struct{}] {
		if st.Volume < 0 {
			return mpd.Failed[struct{}](&mpd.Error{Kind: mpd.KindInvalidState, Op: "setvol"})
		}
		return p.run("setvol", max(0, min(100, st.Volume+delta)))
	})
}

func (p *MPDPlayer) SetRandom(on bool) *mpd.Future[struct{}] {
	return p.run("random", on)
}

func (p *MPDPlayer) SetConsume(on bool) *mpd.Future[struct{}] {
	return p.run("consume", on)
}

func (p *MPDPlayer) SetSingle(on bool) *mpd.Future[struct{}] {
	return p.run("single", on)
}

// SetRepeat sends repeat and single as one batch
func (p *MPDPlayer) SetRepeat(mode domain.RepeatMode) *mpd.Future[struct{}] {
	repeat, single := mode.Flags()
	return p.client.ExecuteBatch([]mpd.Command{
		mpd.Cmd("repeat", repeat),
		mpd.Cmd("single", single),
	})
}

// Status returns the player status with the current song
func (p *MPDPlayer) Status() *mpd.Future[domain.PlayerStatus] {
	return p.client.Status()
}
