package queue

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
)

var log = logging.Logger("queue")

// Executor is the part of the client the manager needs
type Executor interface {
	ExecuteList(cmds []mpd.Command) *mpd.Future[[]mpd.Block]
	ExecuteBatch(cmds []mpd.Command) *mpd.Future[struct{}]
	Root() string
}

// Snapshot is the queue together with the status it was read with
type Snapshot struct {
	Songs  []domain.Song
	Status domain.PlayerStatus
}

// Current is the position of the current song, -1 when there is none
func (s Snapshot) Current() int {
	if s.Status.SongPosition < 0 || s.Status.SongPosition >= len(s.Songs) {
		return -1
	}
	return s.Status.SongPosition
}

// UpNext is the part of the queue after the current song
func (s Snapshot) UpNext() []domain.Song {
	return UpNext(s.Songs, s.Current())
}

// History is the part of the queue before the current song, most recent first
func (s Snapshot) History() []domain.Song {
	return History(s.Songs, s.Current())
}

// refresh maps songs onto their entries in the snapshot by queue id. Songs
// that are no longer queued are dropped.
func (s Snapshot) refresh(songs []domain.Song) []domain.Song {
	byID := lo.KeyBy(s.Songs, func(q domain.Song) int { return q.ID })
	return lo.FilterMap(songs, func(song domain.Song, _ int) (domain.Song, bool) {
		q, ok := byID[song.ID]
		return q, ok
	})
}

// Manager reads the queue and applies edits as atomic batches
type Manager struct {
	exec Executor
}

// NewManager creates a manager on top of a connected client
func NewManager(exec Executor) *Manager {
	return &Manager{exec: exec}
}

// Snapshot reads status and queue in one command list
func (m *Manager) Snapshot() *mpd.Future[Snapshot] {
	root := m.exec.Root()
	list := m.exec.ExecuteList([]mpd.Command{mpd.Cmd("status"), mpd.Cmd("playlistinfo")})
	return mpd.Map(list, func(blocks []mpd.Block) (Snapshot, error) {
		return Snapshot{
			Status: mpd.ParseStatus(blocks[0]),
			Songs:  mpd.ParseSongs(blocks[1], root),
		}, nil
	})
}

// UpNext reads the songs after the current one
func (m *Manager) UpNext() *mpd.Future[[]domain.Song] {
	return mpd.Map(m.Snapshot(), func(s Snapshot) ([]domain.Song, error) {
		return s.UpNext(), nil
	})
}

// History reads the songs before the current one, most recent first
func (m *Manager) History() *mpd.Future[[]domain.Song] {
	return mpd.Map(m.Snapshot(), func(s Snapshot) ([]domain.Song, error) {
		return s.History(), nil
	})
}

// Apply sends plan as one batch
func (m *Manager) Apply(plan Plan) *mpd.Future[struct{}] {
	if plan.Empty() {
		return mpd.Resolved(struct{}{}, nil)
	}
	log.Debugw("applying queue plan", "steps", len(plan))
	return m.exec.ExecuteBatch(plan.Commands())
}

// planned reads a fresh snapshot, builds a plan from it and applies it
func (m *Manager) planned(build func(Snapshot) (Plan, error)) *mpd.Future[struct{}] {
	return mpd.Chain(m.Snapshot(), func(s Snapshot) *mpd.Future[struct{}] {
		plan, err := build(s)
		if err != nil {
			return mpd.Failed[struct{}](err)
		}
		return m.Apply(plan)
	})
}

// MoveToPosition moves songs as a contiguous block starting at target.
// Songs are matched by queue id against the current queue.
func (m *Manager) MoveToPosition(songs []domain.Song, target int) *mpd.Future[struct{}] {
	return m.planned(func(s Snapshot) (Plan, error) {
		return PlanMove(s.refresh(songs), target, len(s.Songs))
	})
}

// MoveAfterCurrent moves songs right behind the current song
func (m *Manager) MoveAfterCurrent(songs []domain.Song) *mpd.Future[struct{}] {
	return m.planned(func(s Snapshot) (Plan, error) {
		return PlanMoveAfterCurrent(s.refresh(songs), s.Current(), len(s.Songs))
	})
}

// Add appends uris to the queue
func (m *Manager) Add(uris ...string) *mpd.Future[struct{}] {
	return m.Apply(PlanAdd(uris, -1))
}

// AddAfterCurrent inserts uris right behind the current song, or appends
// them when nothing is current.
func (m *Manager) AddAfterCurrent(uris ...string) *mpd.Future[struct{}] {
	return m.planned(func(s Snapshot) (Plan, error) {
		cur := s.Current()
		if cur < 0 {
			return PlanAdd(uris, -1), nil
		}
		return PlanAdd(uris, cur+1), nil
	})
}

// Remove deletes songs from the queue
func (m *Manager) Remove(songs []domain.Song) *mpd.Future[struct{}] {
	return m.Apply(PlanRemove(songs))
}

// Clear empties the queue
func (m *Manager) Clear() *mpd.Future[struct{}] {
	return m.Apply(Plan{{Op: OpClear}})
}

// Shuffle reorders the whole queue randomly
func (m *Manager) Shuffle() *mpd.Future[struct{}] {
	return m.Apply(Plan{{Op: OpShuffle}})
}
