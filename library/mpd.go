package library

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
)

// Client is the part of mpd.Client the library queries through
type Client interface {
	Execute(cmd mpd.Command, expectsBody bool) *mpd.Future[mpd.Block]
	Stats() *mpd.Future[domain.Stats]
	Ping() *mpd.Future[struct{}]
	Root() string
}

type MPDLibrary struct {
	client Client
}

func NewMPDLibrary(client Client) *MPDLibrary {
	return &MPDLibrary{
		client: client,
	}
}

func (l *MPDLibrary) Stats() *mpd.Future[domain.Stats] {
	return l.client.Stats()
}

// Search matches query as a case-insensitive substring of tag. The tag "any"
// searches every tag.
func (l *MPDLibrary) Search(tag, query string) *mpd.Future[[]domain.Song] {
	return l.songs("search", tag, query)
}

// Find matches value exactly against tag
func (l *MPDLibrary) Find(tag, value string) *mpd.Future[[]domain.Song] {
	return l.songs("find", tag, value)
}

func (l *MPDLibrary) songs(name, tag, value string) *mpd.Future[[]domain.Song] {
	if strings.TrimSpace(tag) == "" {
		return mpd.Failed[[]domain.Song](mpd.InvalidArgument(name, "empty tag"))
	}
	return l.songList(mpd.Cmd(name, tag, value))
}

// ListAll returns every song below dir, the whole library for ""
func (l *MPDLibrary) ListAll(dir string) *mpd.Future[[]domain.Song] {
	if dir == "" {
		return l.songList(mpd.Cmd("listallinfo"))
	}
	return l.songList(mpd.Cmd("listallinfo", dir))
}

func (l *MPDLibrary) songList(cmd mpd.Command) *mpd.Future[[]domain.Song] {
	root := l.client.Root()
	return mpd.Map(l.client.Execute(cmd, true), func(b mpd.Block) ([]domain.Song, error) {
		return mpd.ParseSongs(b, root), nil
	})
}

// List returns the distinct values of tag
func (l *MPDLibrary) List(tag string) *mpd.Future[[]string] {
	if strings.TrimSpace(tag) == "" {
		return mpd.Failed[[]string](mpd.InvalidArgument("list", "empty tag"))
	}
	return mpd.Map(l.client.Execute(mpd.Cmd("list", tag), true), func(b mpd.Block) ([]string, error) {
		return mpd.ParseValues(b, tag), nil
	})
}

// Update starts a database rescan of path, everything for "", and returns
// the job id
func (l *MPDLibrary) Update(path string) *mpd.Future[int] {
	cmd := mpd.Cmd("update")
	if path != "" {
		cmd = mpd.Cmd("update", path)
	}
	return mpd.Map(l.client.Execute(cmd, true), func(b mpd.Block) (int, error) {
		v, ok := b.Get("updating_db")
		if !ok {
			return 0, &mpd.Error{Kind: mpd.KindMalformedResponse, Op: "update"}
		}
		id, err := cast.ToFloat64E(strings.TrimSpace(v))
		if err != nil {
			return 0, &mpd.Error{Kind: mpd.KindMalformedResponse, Op: "update", Err: err}
		}
		return int(id), nil
	})
}

func (l *MPDLibrary) Ping() *mpd.Future[struct{}] {
	return l.client.Ping()
}
