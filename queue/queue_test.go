package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
)

// makeQueue builds n queued songs with ids 100+position
func makeQueue(n int) []domain.Song {
	q := make([]domain.Song, n)
	for i := range q {
		q[i] = domain.Song{ID: 100 + i, Position: i, Title: fmt.Sprintf("song %d", i)}
	}
	return q
}

func ids(songs []domain.Song) []int {
	out := make([]int, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

// apply runs move steps against a list of ids the way the server does,
// failing on targets the server would reject
func apply(t *testing.T, queue []int, plan Plan) []int {
	t.Helper()
	q := append([]int(nil), queue...)
	for _, step := range plan {
		require.Equal(t, OpMove, step.Op)
		require.GreaterOrEqual(t, step.Pos, 0)
		require.Less(t, step.Pos, len(q), "move %d to %d", step.ID, step.Pos)
		from := -1
		for i, id := range q {
			if id == step.ID {
				from = i
			}
		}
		require.GreaterOrEqual(t, from, 0)
		q = moveElement(q, from, step.Pos)
	}
	return q
}

// expectedMove is the queue after moving block so it starts at target
func expectedMove(queue []int, block []int, target int) []int {
	moving := map[int]bool{}
	for _, id := range block {
		moving[id] = true
	}
	var others []int
	for _, id := range queue {
		if !moving[id] {
			others = append(others, id)
		}
	}
	start := min(target, len(others))
	out := append([]int(nil), others[:start]...)
	out = append(out, block...)
	return append(out, others[start:]...)
}

func TestUpNextAndHistory(t *testing.T) {
	q := makeQueue(5)

	assert.Equal(t, ids(q), ids(UpNext(q, -1)))
	assert.Equal(t, []int{103, 104}, ids(UpNext(q, 2)))
	assert.Empty(t, UpNext(q, 4))
	assert.Empty(t, UpNext(nil, -1))

	assert.Empty(t, History(q, -1))
	assert.Empty(t, History(q, 0))
	assert.Equal(t, []int{101, 100}, ids(History(q, 2)))
	assert.Equal(t, []int{103, 102, 101, 100}, ids(History(q, 4)))

	// inputs are not modified
	assert.Equal(t, []int{100, 101, 102, 103, 104}, ids(q))
}

func TestUpNextHistoryNeverOverlap(t *testing.T) {
	for n := 0; n <= 5; n++ {
		q := makeQueue(n)
		for p := -1; p < n; p++ {
			up, hist := UpNext(q, p), History(q, p)
			assert.LessOrEqual(t, len(up)+len(hist), n)
			if p >= 0 {
				assert.NotContains(t, ids(up), q[p].ID)
				assert.NotContains(t, ids(hist), q[p].ID)
			}
		}
	}
}

func TestPlanMoveSingleSong(t *testing.T) {
	q := makeQueue(5)

	plan, err := PlanMove([]domain.Song{q[4]}, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, Plan{{Op: OpMove, ID: 104, Pos: 1}}, plan)

	plan, err = PlanMove([]domain.Song{q[0]}, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102, 103, 100, 104}, apply(t, ids(q), plan))
}

func TestPlanMoveToEndMatchesLastIndex(t *testing.T) {
	q := makeQueue(6)
	for _, block := range [][]domain.Song{{q[1]}, {q[0], q[3]}, {q[4], q[2], q[5]}} {
		atLen, err := PlanMove(block, len(q), len(q))
		require.NoError(t, err)
		atLast, err := PlanMove(block, len(q)-1, len(q))
		require.NoError(t, err)
		assert.Equal(t, atLast, atLen)
		assert.Equal(t, expectedMove(ids(q), ids(block), len(q)), apply(t, ids(q), atLen))
	}
}

func TestPlanMoveEndRelativeCommands(t *testing.T) {
	q := makeQueue(5)
	plan, err := PlanMove([]domain.Song{q[0], q[1]}, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"moveid 101 4", "moveid 100 3"}, commandLines(plan))
}

func TestPlanMoveKeepsBlockContiguous(t *testing.T) {
	const n = 6
	q := makeQueue(n)
	for mask := 1; mask < 1<<n; mask++ {
		var block []domain.Song
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				block = append(block, q[i])
			}
		}
		orders := [][]domain.Song{block, reversed(block), rotated(block)}
		for _, order := range orders {
			for target := 0; target <= n; target++ {
				plan, err := PlanMove(order, target, n)
				require.NoError(t, err)
				got := apply(t, ids(q), plan)
				assert.Equal(t, expectedMove(ids(q), ids(order), target), got,
					"block %v target %d plan %v", ids(order), target, plan)
			}
		}
	}
}

func TestPlanMoveDropsDuplicates(t *testing.T) {
	q := makeQueue(4)
	plan, err := PlanMove([]domain.Song{q[3], q[3], q[2]}, 0, 4)
	require.NoError(t, err)
	assert.Len(t, plan, 2)
	assert.Equal(t, []int{103, 102, 100, 101}, apply(t, ids(q), plan))
}

func TestPlanMoveInvalid(t *testing.T) {
	q := makeQueue(3)
	tests := []struct {
		name   string
		songs  []domain.Song
		target int
	}{
		{"negative target", []domain.Song{q[0]}, -1},
		{"target past end", []domain.Song{q[0]}, 4},
		{"position outside queue", []domain.Song{{ID: 7, Position: 3}}, 0},
		{"not queued", []domain.Song{{ID: -1, Position: 1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanMove(tt.songs, tt.target, len(q))
			assert.Equal(t, mpd.KindInvalidArgument, mpd.Classify(err))
		})
	}

	plan, err := PlanMove(nil, 2, 3)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
}

func TestPlanMoveAfterCurrent(t *testing.T) {
	q := makeQueue(6)

	plan, err := PlanMoveAfterCurrent([]domain.Song{q[5], q[0]}, 2, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102, 105, 100, 103, 104}, apply(t, ids(q), plan))

	plan, err = PlanMoveAfterCurrent([]domain.Song{q[1]}, -1, 6)
	require.NoError(t, err)
	assert.True(t, plan.Empty())

	_, err = PlanMoveAfterCurrent([]domain.Song{q[1]}, 6, 6)
	assert.Equal(t, mpd.KindInvalidArgument, mpd.Classify(err))
}

func TestPlanMoveAfterCurrentProperty(t *testing.T) {
	const n = 5
	q := makeQueue(n)
	for cur := 0; cur < n; cur++ {
		for mask := 1; mask < 1<<n; mask++ {
			var block []domain.Song
			for i := n - 1; i >= 0; i-- {
				if mask&(1<<i) != 0 {
					block = append(block, q[i])
				}
			}
			plan, err := PlanMoveAfterCurrent(block, cur, n)
			require.NoError(t, err)
			got := apply(t, ids(q), plan)

			var want []int
			for _, s := range block {
				if s.Position != cur {
					want = append(want, s.ID)
				}
			}
			at := indexOf(got, q[cur].ID)
			require.GreaterOrEqual(t, at, 0)
			assert.Equal(t, want, got[at+1:at+1+len(want)], "cur %d block %v", cur, ids(block))
		}
	}
}

func TestPlanAdd(t *testing.T) {
	assert.Equal(t, []string{"add a.mp3", `add "b c.mp3"`}, commandLines(PlanAdd([]string{"a.mp3", "b c.mp3"}, -1)))
	assert.Equal(t, []string{"addid a.mp3 3", "addid b.mp3 4"}, commandLines(PlanAdd([]string{"a.mp3", "b.mp3"}, 3)))
	assert.True(t, PlanAdd(nil, 0).Empty())
}

func TestPlanRemove(t *testing.T) {
	songs := []domain.Song{
		{ID: 10, Position: 0},
		{ID: -1, Position: 3},
		{ID: 12, Position: 2},
		{ID: -1, Position: 5},
		{ID: 10, Position: 0},
	}
	assert.Equal(t, []string{"delete 5", "delete 3", "deleteid 10", "deleteid 12"}, commandLines(PlanRemove(songs)))
	assert.True(t, PlanRemove(nil).Empty())
}

func TestStepCommand(t *testing.T) {
	assert.Equal(t, "clear\n", Step{Op: OpClear}.Command().Encode())
	assert.Equal(t, "shuffle\n", Step{Op: OpShuffle}.Command().Encode())
}

func commandLines(p Plan) []string {
	out := make([]string, len(p))
	for i, c := range p.Commands() {
		enc := c.Encode()
		out[i] = enc[:len(enc)-1]
	}
	return out
}

func reversed(songs []domain.Song) []domain.Song {
	out := make([]domain.Song, len(songs))
	for i, s := range songs {
		out[len(songs)-1-i] = s
	}
	return out
}

func rotated(songs []domain.Song) []domain.Song {
	if len(songs) < 2 {
		return songs
	}
	return append(append([]domain.Song(nil), songs[1:]...), songs[0])
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}
