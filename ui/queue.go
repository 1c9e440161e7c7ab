package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/yhkl-dev/navimpd/device"
	"github.com/yhkl-dev/navimpd/domain"
	"golang.org/x/term"
)

// DefaultTerminalWidth is used when the terminal width cannot be determined
const DefaultTerminalWidth = 100

// TerminalWidth returns the width of stdout, or DefaultTerminalWidth
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}

// Renderer writes tables for queue and library listings
type Renderer struct {
	out      io.Writer
	maxCol   int
	rowWidth int
}

// NewRenderer creates a renderer writing to out. Cells wider than maxCol are
// truncated; rowWidth 0 disables the row limit.
func NewRenderer(out io.Writer, maxCol, rowWidth int) *Renderer {
	return &Renderer{out: out, maxCol: maxCol, rowWidth: rowWidth}
}

func (r *Renderer) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	if r.rowWidth > 0 {
		t.SetAllowedRowLength(r.rowWidth)
	}
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func (r *Renderer) cell(s string) string {
	return Truncate(s, r.maxCol)
}

// RenderQueue lists songs with their queue positions, marking current
func (r *Renderer) RenderQueue(title string, songs []domain.Song, current int) {
	if len(songs) == 0 {
		fmt.Fprintf(r.out, "%s: queue is empty\n", title)
		return
	}

	t := r.newTable(title)
	t.AppendHeader(table.Row{"", "#", "Title", "Artist", "Album", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for i, song := range songs {
		pos := song.Position
		if pos < 0 {
			pos = i
		}
		marker := ""
		paint := fmt.Sprint
		if pos == current {
			marker = "▶"
			paint = text.FgGreen.Sprint
		}
		t.AppendRow(table.Row{
			marker,
			paint(strconv.Itoa(pos + 1)),
			paint(r.cell(song.Title)),
			r.cell(song.Artist),
			r.cell(song.Album),
			FormatDuration(song.Duration),
		})
	}
	t.Render()
}

// RenderSongs lists library songs by file
func (r *Renderer) RenderSongs(title string, songs []domain.Song) {
	if len(songs) == 0 {
		fmt.Fprintf(r.out, "%s: no songs\n", title)
		return
	}
	t := r.newTable(title)
	t.AppendHeader(table.Row{"Title", "Artist", "Album", "File", "Duration"})
	for _, song := range songs {
		t.AppendRow(table.Row{
			r.cell(song.Title),
			r.cell(song.Artist),
			r.cell(song.Album),
			r.cell(song.URI),
			FormatDuration(song.Duration),
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d songs", len(songs)), ""})
	t.Render()
}

// RenderValues lists the values of a tag, one per row
func (r *Renderer) RenderValues(tag string, values []string) {
	t := r.newTable("")
	t.AppendHeader(table.Row{tag})
	for _, v := range values {
		t.AppendRow(table.Row{r.cell(v)})
	}
	t.Render()
}

// RenderStats prints the server counters
func (r *Renderer) RenderStats(version string, st domain.Stats) {
	t := r.newTable("Server")
	rows := []table.Row{
		{"Protocol", version},
		{"Artists", st.Artists},
		{"Albums", st.Albums},
		{"Songs", st.Songs},
		{"Uptime", FormatSpan(st.Uptime)},
		{"Playtime", FormatSpan(st.Playtime)},
		{"Library playtime", FormatSpan(st.DBPlaytime)},
	}
	if !st.DBUpdate.IsZero() {
		rows = append(rows, table.Row{"Last update", st.DBUpdate.Format("2006-01-02 15:04:05")})
	}
	t.AppendRows(rows)
	t.Render()
}

// RenderOutputs lists the audio outputs of the server
func (r *Renderer) RenderOutputs(outputs []device.Output) {
	t := r.newTable("Outputs")
	t.AppendHeader(table.Row{"ID", "Name", "Plugin", "Type", "Enabled"})
	for _, o := range outputs {
		enabled := text.FgHiBlack.Sprint("no")
		if o.Enabled {
			enabled = text.FgGreen.Sprint("yes")
		}
		t.AppendRow(table.Row{o.ID, r.cell(o.Name), o.Plugin, o.Type, enabled})
	}
	t.Render()
}
