// Package queue derives up next and history views from the play queue and
// plans queue edits as command batches the server applies atomically.
package queue

import (
	"sort"

	"github.com/samber/lo"
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
)

// UpNext returns the songs after the current position. With no current song
// the whole queue is upcoming.
func UpNext(q []domain.Song, cur int) []domain.Song {
	if cur < 0 {
		return append([]domain.Song(nil), q...)
	}
	if cur >= len(q)-1 {
		return []domain.Song{}
	}
	return append([]domain.Song(nil), q[cur+1:]...)
}

// History returns the songs before the current position, most recent first
func History(q []domain.Song, cur int) []domain.Song {
	if cur <= 0 {
		return []domain.Song{}
	}
	cur = min(cur, len(q))
	return lo.Reverse(append([]domain.Song(nil), q[:cur]...))
}

// Op names a single queue edit
type Op string

const (
	OpMove     Op = "moveid"
	OpAdd      Op = "add"
	OpAddAt    Op = "addid"
	OpDelete   Op = "deleteid"
	OpDeleteAt Op = "delete"
	OpClear    Op = "clear"
	OpShuffle  Op = "shuffle"
)

// Step is one edit. ID, URI and Pos are used depending on Op.
type Step struct {
	Op  Op
	ID  int
	URI string
	Pos int
}

// Command renders the step on the wire
func (s Step) Command() mpd.Command {
	switch s.Op {
	case OpMove:
		return mpd.Cmd(string(s.Op), s.ID, s.Pos)
	case OpAdd:
		return mpd.Cmd(string(s.Op), s.URI)
	case OpAddAt:
		return mpd.Cmd(string(s.Op), s.URI, s.Pos)
	case OpDelete:
		return mpd.Cmd(string(s.Op), s.ID)
	case OpDeleteAt:
		return mpd.Cmd(string(s.Op), s.Pos)
	default:
		return mpd.Cmd(string(s.Op))
	}
}

// Plan is an ordered list of edits meant to be sent as one batch
type Plan []Step

// Commands converts the plan for ExecuteBatch
func (p Plan) Commands() []mpd.Command {
	return lo.Map(p, func(s Step, _ int) mpd.Command { return s.Command() })
}

// Empty reports whether the plan has nothing to do
func (p Plan) Empty() bool {
	return len(p) == 0
}

// uniqueSongs drops repeated songs, keeping the first occurrence
func uniqueSongs(songs []domain.Song) []domain.Song {
	return lo.UniqBy(songs, func(s domain.Song) int {
		if s.ID >= 0 {
			return s.ID
		}
		return -2 - s.Position
	})
}

// PlanMove moves songs so that they form a contiguous block, in the given
// order, whose first song ends up at target. A target past the point where
// the block still fits is treated as the end of the queue, so target len and
// target len-1 produce the same commands.
func PlanMove(songs []domain.Song, target, queueLen int) (Plan, error) {
	if target < 0 || target > queueLen {
		return nil, mpd.InvalidArgument("move", "target %d outside queue of %d", target, queueLen)
	}
	songs = uniqueSongs(songs)
	n := len(songs)
	if n == 0 {
		return Plan{}, nil
	}

	moving := make(map[int]bool, n)
	for _, s := range songs {
		if s.Position < 0 || s.Position >= queueLen {
			return nil, mpd.InvalidArgument("move", "song position %d outside queue of %d", s.Position, queueLen)
		}
		if s.ID < 0 {
			return nil, mpd.InvalidArgument("move", "song at %d has no queue id", s.Position)
		}
		moving[s.Position] = true
	}

	start := min(target, queueLen-n)
	plan := make(Plan, 0, n)

	if start == queueLen-n {
		for i := 0; i < n; i++ {
			s := songs[n-1-i]
			plan = append(plan, Step{Op: OpMove, ID: s.ID, Pos: queueLen - 1 - i})
		}
		return plan, nil
	}

	others := make([]int, 0, queueLen-n)
	for p := 0; p < queueLen; p++ {
		if !moving[p] {
			others = append(others, p)
		}
	}
	anchor := others[start]

	// virtual holds original positions in their current order as the moves
	// are applied one by one
	virtual := make([]int, queueLen)
	for i := range virtual {
		virtual[i] = i
	}
	for _, s := range songs {
		p := lo.IndexOf(virtual, s.Position)
		a := lo.IndexOf(virtual, anchor)
		to := a
		if p < a {
			to = a - 1
		}
		plan = append(plan, Step{Op: OpMove, ID: s.ID, Pos: to})
		virtual = moveElement(virtual, p, to)
	}
	return plan, nil
}

func moveElement(xs []int, from, to int) []int {
	v := xs[from]
	xs = append(xs[:from], xs[from+1:]...)
	xs = append(xs[:to], append([]int{v}, xs[to:]...)...)
	return xs
}

// PlanMoveAfterCurrent moves songs right behind the current song. The current
// song itself never moves. With no current song there is nothing to do.
func PlanMoveAfterCurrent(songs []domain.Song, cur, queueLen int) (Plan, error) {
	if cur == -1 {
		return Plan{}, nil
	}
	if cur < 0 || cur >= queueLen {
		return nil, mpd.InvalidArgument("move after current", "current position %d outside queue of %d", cur, queueLen)
	}
	songs = lo.Reject(uniqueSongs(songs), func(s domain.Song, _ int) bool { return s.Position == cur })
	before := lo.CountBy(songs, func(s domain.Song) bool { return s.Position >= 0 && s.Position < cur })
	return PlanMove(songs, cur+1-before, queueLen)
}

// PlanAdd appends uris, or inserts them in order starting at position at
func PlanAdd(uris []string, at int) Plan {
	plan := make(Plan, 0, len(uris))
	for i, uri := range uris {
		if at < 0 {
			plan = append(plan, Step{Op: OpAdd, URI: uri})
		} else {
			plan = append(plan, Step{Op: OpAddAt, URI: uri, Pos: at + i})
		}
	}
	return plan
}

// PlanRemove deletes songs by queue id. Songs without an id are deleted by
// position first, highest first, while positions still match the snapshot.
func PlanRemove(songs []domain.Song) Plan {
	songs = uniqueSongs(songs)
	withID, byPos := lo.FilterReject(songs, func(s domain.Song, _ int) bool { return s.ID >= 0 })

	plan := make(Plan, 0, len(songs))
	positions := lo.FilterMap(byPos, func(s domain.Song, _ int) (int, bool) { return s.Position, s.Position >= 0 })
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	for _, p := range positions {
		plan = append(plan, Step{Op: OpDeleteAt, Pos: p})
	}
	for _, s := range withID {
		plan = append(plan, Step{Op: OpDelete, ID: s.ID})
	}
	return plan
}
