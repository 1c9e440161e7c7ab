package domain

import (
	"time"
)

// Song represents a music track as reported by the server
type Song struct {
	ID           int // queue id, -1 when not in the queue
	URI          string
	Path         string // URI resolved against the library root
	Artist       string
	Album        string
	AlbumArtist  string
	Title        string
	Name         string // stream name, set for radio URIs
	Track        int
	TrackCount   int
	Genre        string
	Year         int
	Composer     string
	Performer    string
	Disc         int
	DiscCount    int
	Duration     float64 // in seconds
	Position     int     // queue position, -1 when not in the queue
	LastModified time.Time
}

// EmptySong stands in for "no song", e.g. the current song of a stopped player
var EmptySong = Song{ID: -1, Position: -1}

// NewSong returns a song with the unqueued defaults set
func NewSong() Song {
	return EmptySong
}

// Equal reports whether two songs are the same recording. Queue placement is
// ignored so the same song seen at two positions compares equal.
func (s Song) Equal(other Song) bool {
	return s.Title == other.Title &&
		s.Album == other.Album &&
		s.Artist == other.Artist
}

// IsEmpty reports whether s is the EmptySong sentinel
func (s Song) IsEmpty() bool {
	return s.Equal(EmptySong)
}

// InQueue reports whether the song carries a queue position
func (s Song) InQueue() bool {
	return s.Position >= 0
}

// RepeatMode is the composed repeat/single setting of the player
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatQueue
	RepeatSingle
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatQueue:
		return "queue"
	case RepeatSingle:
		return "single"
	default:
		return "off"
	}
}

// ComposeRepeat derives the repeat mode from the server's repeat and single flags
func ComposeRepeat(repeat, single bool) RepeatMode {
	switch {
	case !repeat:
		return RepeatOff
	case single:
		return RepeatSingle
	default:
		return RepeatQueue
	}
}

// ParseRepeatMode is the inverse of RepeatMode.String
func ParseRepeatMode(name string) (RepeatMode, bool) {
	for _, m := range []RepeatMode{RepeatOff, RepeatQueue, RepeatSingle} {
		if m.String() == name {
			return m, true
		}
	}
	return RepeatOff, false
}

// Flags splits a repeat mode back into the server's repeat and single flags
func (m RepeatMode) Flags() (repeat, single bool) {
	switch m {
	case RepeatQueue:
		return true, false
	case RepeatSingle:
		return true, true
	default:
		return false, false
	}
}

// PlayingState is the transport state of the player
type PlayingState int

const (
	Stopped PlayingState = iota
	Playing
	Paused
)

func (s PlayingState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlayerStatus is a snapshot of the player taken from one status response
type PlayerStatus struct {
	Song             Song
	Volume           int // 0-100, -1 when the server has no mixer
	Random           bool
	Single           bool
	Consume          bool
	Repeat           RepeatMode
	QueueLength      int
	QueueVersion     int
	State            PlayingState
	SongPosition     int // -1 when nothing is current
	SongID           int
	NextSongPosition int
	NextSongID       int
	Elapsed          float64 // in seconds
	Duration         float64 // in seconds
	Bitrate          int     // kbps
	AudioFormat      string
	Crossfade        int
	UpdatingDB       int // update job id, 0 when idle
	Error            string
}

// NewPlayerStatus returns a status with unknown markers in place
func NewPlayerStatus() PlayerStatus {
	return PlayerStatus{
		Song:             EmptySong,
		Volume:           -1,
		SongPosition:     -1,
		SongID:           -1,
		NextSongPosition: -1,
		NextSongID:       -1,
	}
}

// HasCurrentSong reports whether the status points at a queued song
func (s PlayerStatus) HasCurrentSong() bool {
	return s.SongPosition >= 0 && !s.Song.IsEmpty()
}

// Stats holds the database and uptime counters of the server
type Stats struct {
	Artists    int
	Albums     int
	Songs      int
	Uptime     time.Duration
	Playtime   time.Duration
	DBPlaytime time.Duration
	DBUpdate   time.Time
}
