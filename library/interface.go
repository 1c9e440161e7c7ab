package library

import (
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
)

type Library interface {
	Stats() *mpd.Future[domain.Stats]
	Search(tag, query string) *mpd.Future[[]domain.Song]
	Find(tag, value string) *mpd.Future[[]domain.Song]
	ListAll(dir string) *mpd.Future[[]domain.Song]
	List(tag string) *mpd.Future[[]string]
	Update(path string) *mpd.Future[int]
	Ping() *mpd.Future[struct{}]
}
