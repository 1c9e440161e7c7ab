package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/yhkl-dev/navimpd/domain"
)

// FormatDuration converts seconds to MM:SS, or H:MM:SS from one hour on
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := total % 3600 / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatSpan formats a duration like FormatDuration
func FormatSpan(d time.Duration) string {
	return FormatDuration(d.Seconds())
}

// Truncate shortens s to maxWidth terminal cells, ending with "…" when cut
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// SongLabel is "Artist - Title", or just the title without an artist
func SongLabel(song domain.Song) string {
	if song.Artist == "" {
		return song.Title
	}
	return song.Artist + " - " + song.Title
}

// CreateProgressBar creates a visual progress bar
func CreateProgressBar(progress float64, width int) string {
	progress = max(0, min(1, progress))
	filledWidth := int(progress * float64(width))
	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filledWidth {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return bar.String() + fmt.Sprintf(" %.1f%%", progress*100)
}

// FormatVolume renders the volume, "n/a" for servers without a mixer
func FormatVolume(volume int) string {
	if volume < 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", volume)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// FormatStatus creates the status display of the player
func FormatStatus(st domain.PlayerStatus, barWidth int) string {
	var b strings.Builder
	if st.HasCurrentSong() {
		fmt.Fprintf(&b, "%s\n", SongLabel(st.Song))
		if st.Song.Album != "" {
			fmt.Fprintf(&b, "%s\n", st.Song.Album)
		}
		progress := 0.0
		if st.Duration > 0 {
			progress = st.Elapsed / st.Duration
		}
		fmt.Fprintf(&b, "[%s] #%d/%d %s/%s\n", st.State, st.SongPosition+1, st.QueueLength,
			FormatDuration(st.Elapsed), FormatDuration(st.Duration))
		fmt.Fprintf(&b, "%s\n", CreateProgressBar(progress, barWidth))
	} else {
		fmt.Fprintf(&b, "[%s] queue: %d songs\n", st.State, st.QueueLength)
	}
	fmt.Fprintf(&b, "volume: %s  repeat: %s  random: %s  consume: %s",
		FormatVolume(st.Volume), st.Repeat, onOff(st.Random), onOff(st.Consume))
	if st.UpdatingDB > 0 {
		fmt.Fprintf(&b, "\nupdating database (job %d)", st.UpdatingDB)
	}
	if st.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s", st.Error)
	}
	return b.String()
}

// FormatEvent is one line of the watch output
func FormatEvent(at time.Time, ev domain.Event) string {
	return fmt.Sprintf("%s %s", at.Format("15:04:05"), ev)
}
