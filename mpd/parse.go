package mpd

import (
	"path"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/yhkl-dev/navimpd/domain"
)

// parseInt converts a server numeric, yielding def when the value is unusable.
// Values go through float parsing so "08" and "3.0" both read as expected.
func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return def
	}
	return int(f)
}

func parseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return def
	}
	return f
}

func parseBool(s string) bool {
	return parseInt(s, 0) != 0
}

func parseSeconds(s string) time.Duration {
	return time.Duration(parseFloat(s, 0) * float64(time.Second))
}

// parseNumberPair splits "N/M" once. A value without '/' yields count 0.
func parseNumberPair(s string) (n, count int) {
	num, total, ok := strings.Cut(s, "/")
	n = parseInt(num, 0)
	if ok {
		count = parseInt(total, 0)
	}
	return n, count
}

// parseYear reads the leading digits of a date tag ("2001-05-03" -> 2001)
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return parseInt(s[:end], 0)
}

// titleFromURI derives a display title from the file name of uri
func titleFromURI(uri string) string {
	base := path.Base(uri)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// resolvePath joins a server-relative uri onto the library root. Remote URIs
// and an empty root leave the uri untouched.
func resolvePath(root, uri string) string {
	if root == "" || uri == "" || strings.Contains(uri, "://") {
		return uri
	}
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(uri, "/")
}

type songSetter func(s *domain.Song, v string)

var songKeys = map[string]songSetter{
	"file":        func(s *domain.Song, v string) { s.URI = v },
	"id":          func(s *domain.Song, v string) { s.ID = parseInt(v, -1) },
	"pos":         func(s *domain.Song, v string) { s.Position = parseInt(v, -1) },
	"artist":      func(s *domain.Song, v string) { s.Artist = v },
	"album":       func(s *domain.Song, v string) { s.Album = v },
	"albumartist": func(s *domain.Song, v string) { s.AlbumArtist = v },
	"title":       func(s *domain.Song, v string) { s.Title = v },
	"name":        func(s *domain.Song, v string) { s.Name = v },
	"track":       func(s *domain.Song, v string) { s.Track, s.TrackCount = parseNumberPair(v) },
	"disc":        func(s *domain.Song, v string) { s.Disc, s.DiscCount = parseNumberPair(v) },
	"genre":       func(s *domain.Song, v string) { s.Genre = v },
	"date":        func(s *domain.Song, v string) { s.Year = parseYear(v) },
	"composer":    func(s *domain.Song, v string) { s.Composer = v },
	"performer":   func(s *domain.Song, v string) { s.Performer = v },
	"duration":    func(s *domain.Song, v string) { s.Duration = parseFloat(v, 0) },
	"last-modified": func(s *domain.Song, v string) {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.LastModified = t
		}
	},
}

// ParseSong decodes one song record. root is the library root used to fill Path.
func ParseSong(b Block, root string) domain.Song {
	song := domain.NewSong()
	var legacyTime string
	var hasDuration bool
	for _, f := range b {
		key := strings.ToLower(f.Key)
		switch key {
		case "time":
			legacyTime = f.Value
			continue
		case "duration":
			hasDuration = true
		}
		if set, ok := songKeys[key]; ok {
			set(&song, f.Value)
		}
	}
	if !hasDuration && legacyTime != "" {
		song.Duration = parseFloat(legacyTime, 0)
	}
	if song.Title == "" {
		song.Title = titleFromURI(song.URI)
	}
	song.Path = resolvePath(root, song.URI)
	return song
}

// ParseSongs splits a multi-record response into songs. Every "file" key starts
// a new song; directory and playlist records are skipped.
func ParseSongs(b Block, root string) []domain.Song {
	var songs []domain.Song
	var cur Block
	inSong := false
	flush := func() {
		if inSong {
			songs = append(songs, ParseSong(cur, root))
		}
		cur = nil
		inSong = false
	}
	for _, f := range b {
		switch strings.ToLower(f.Key) {
		case "file":
			flush()
			inSong = true
		case "directory", "playlist":
			// "playlist" is also a status key, but never inside a song listing
			flush()
			continue
		}
		if inSong {
			cur = append(cur, f)
		}
	}
	flush()
	return songs
}

// ParseStatus decodes a status response. The current song is not part of the
// status block; callers attach it separately.
func ParseStatus(b Block) domain.PlayerStatus {
	st := domain.NewPlayerStatus()
	var repeat, single, hasElapsed, hasDuration bool
	var legacyTime string
	for _, f := range b {
		v := f.Value
		switch strings.ToLower(f.Key) {
		case "volume":
			st.Volume = parseInt(v, -1)
		case "repeat":
			repeat = parseBool(v)
		case "single":
			// "oneshot" is treated as on
			single = v == "oneshot" || parseBool(v)
		case "random":
			st.Random = parseBool(v)
		case "consume":
			st.Consume = v == "oneshot" || parseBool(v)
		case "playlist":
			st.QueueVersion = parseInt(v, 0)
		case "playlistlength":
			st.QueueLength = parseInt(v, 0)
		case "state":
			st.State = parseState(v)
		case "song":
			st.SongPosition = parseInt(v, -1)
		case "songid":
			st.SongID = parseInt(v, -1)
		case "nextsong":
			st.NextSongPosition = parseInt(v, -1)
		case "nextsongid":
			st.NextSongID = parseInt(v, -1)
		case "elapsed":
			hasElapsed = true
			st.Elapsed = parseFloat(v, 0)
		case "duration":
			hasDuration = true
			st.Duration = parseFloat(v, 0)
		case "time":
			legacyTime = v
		case "bitrate":
			st.Bitrate = parseInt(v, 0)
		case "audio":
			st.AudioFormat = v
		case "xfade":
			st.Crossfade = parseInt(v, 0)
		case "updating_db":
			st.UpdatingDB = parseInt(v, 0)
		case "error":
			st.Error = v
		}
	}
	st.Single = single
	st.Repeat = domain.ComposeRepeat(repeat, single)
	if legacyTime != "" {
		// "time: elapsed:total" in whole seconds
		elapsed, total, _ := strings.Cut(legacyTime, ":")
		if !hasElapsed {
			st.Elapsed = parseFloat(elapsed, 0)
		}
		if !hasDuration {
			st.Duration = parseFloat(total, 0)
		}
	}
	return st
}

func parseState(v string) domain.PlayingState {
	switch strings.ToLower(v) {
	case "play":
		return domain.Playing
	case "pause":
		return domain.Paused
	default:
		return domain.Stopped
	}
}

// ParseStats decodes a stats response
func ParseStats(b Block) domain.Stats {
	var st domain.Stats
	for _, f := range b {
		v := f.Value
		switch strings.ToLower(f.Key) {
		case "artists":
			st.Artists = parseInt(v, 0)
		case "albums":
			st.Albums = parseInt(v, 0)
		case "songs":
			st.Songs = parseInt(v, 0)
		case "uptime":
			st.Uptime = parseSeconds(v)
		case "playtime":
			st.Playtime = parseSeconds(v)
		case "db_playtime":
			st.DBPlaytime = parseSeconds(v)
		case "db_update":
			if ts := parseInt(v, 0); ts > 0 {
				st.DBUpdate = time.Unix(int64(ts), 0)
			}
		}
	}
	return st
}

// ParseChanged returns the subsystem tokens of an idle response
func ParseChanged(b Block) []string {
	return b.Values("changed")
}

// ParseValues returns every value of key, e.g. the artists of "list artist"
func ParseValues(b Block, key string) []string {
	return b.Values(key)
}
