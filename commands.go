package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/yhkl-dev/navimpd/config"
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/mpd"
	"github.com/yhkl-dev/navimpd/ui"
)

const progressWidth = 30

func done(ctx context.Context, f *mpd.Future[struct{}]) error {
	_, err := f.Wait(ctx)
	return err
}

func (a *Application) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the player status and current song",
		Args:  cobra.NoArgs,
		RunE: a.online(func(ctx context.Context, _ []string) error {
			st, err := a.player.Status().Wait(ctx)
			if err != nil {
				return err
			}
			fmt.Println(ui.FormatStatus(st, progressWidth))
			return nil
		}),
	}
}

func (a *Application) queueCommand() *cobra.Command {
	var upNext, history bool
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the play queue",
		Args:  cobra.NoArgs,
		RunE: a.online(func(ctx context.Context, _ []string) error {
			snap, err := a.queue.Snapshot().Wait(ctx)
			if err != nil {
				return err
			}
			cur := snap.Current()
			switch {
			case upNext:
				a.renderer.RenderQueue("Up next", snap.UpNext(), cur)
			case history:
				songs := snap.History()
				if n := a.cfg.UI.HistorySize; n > 0 && len(songs) > n {
					songs = songs[:n]
				}
				a.renderer.RenderQueue("History", songs, cur)
			default:
				a.renderer.RenderQueue("Queue", snap.Songs, cur)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&upNext, "upnext", false, "only songs after the current one")
	cmd.Flags().BoolVar(&history, "history", false, "only songs before the current one, most recent first")
	cmd.MarkFlagsMutuallyExclusive("upnext", "history")
	return cmd
}

func (a *Application) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server statistics",
		Args:  cobra.NoArgs,
		RunE: a.online(func(ctx context.Context, _ []string) error {
			st, err := a.library.Stats().Wait(ctx)
			if err != nil {
				return err
			}
			a.renderer.RenderStats(a.client.Version(), st)
			return nil
		}),
	}
}

func (a *Application) watchCommand() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print server change events until interrupted",
		Args:  cobra.NoArgs,
		RunE: a.online(func(ctx context.Context, _ []string) error {
			set := domain.AllEventSet()
			if len(names) > 0 {
				events := make([]domain.Event, 0, len(names))
				for _, n := range names {
					ev, ok := domain.ParseEvent(n)
					if !ok {
						return errors.Errorf("unknown event %q", n)
					}
					events = append(events, ev)
				}
				set = domain.NewEventSet(append(events, domain.EventDisconnect)...)
			}

			a.watchConfig()
			lost := make(chan struct{})
			id := a.client.Subscribe(set, func(ev domain.Event) {
				fmt.Println(ui.FormatEvent(time.Now(), ev))
				if ev == domain.EventPlayerChanged {
					a.client.CurrentSong().Then(func(song domain.Song, err error) {
						if err == nil && !song.IsEmpty() {
							fmt.Printf("         %s\n", ui.SongLabel(song))
						}
					})
				}
				if ev == domain.EventDisconnect {
					close(lost)
				}
			})
			defer a.client.Unsubscribe(id)

			select {
			case <-ctx.Done():
				return nil
			case <-lost:
				return errors.New("connection to server lost")
			}
		}),
	}
	cmd.Flags().StringSliceVar(&names, "events", nil, "events to print (default all)")
	return cmd
}

type transport struct {
	use, short string
	run        func() *mpd.Future[struct{}]
}

// transportCommands are the playback controls
func (a *Application) transportCommands() []*cobra.Command {
	simple := []transport{
		{"pause", "Pause playback", func() *mpd.Future[struct{}] { return a.player.Pause(true) }},
		{"toggle", "Toggle between play and pause", func() *mpd.Future[struct{}] { return a.player.Toggle() }},
		{"stop", "Stop playback", func() *mpd.Future[struct{}] { return a.player.Stop() }},
		{"next", "Play the next song", func() *mpd.Future[struct{}] { return a.player.Next() }},
		{"prev", "Play the previous song", func() *mpd.Future[struct{}] { return a.player.Previous() }},
	}
	cmds := lo.Map(simple, func(t transport, _ int) *cobra.Command {
		return &cobra.Command{
			Use:   t.use,
			Short: t.short,
			Args:  cobra.NoArgs,
			RunE: a.online(func(ctx context.Context, _ []string) error {
				return done(ctx, t.run())
			}),
		}
	})

	play := &cobra.Command{
		Use:   "play [position]",
		Short: "Start playback, optionally at a queue position (1-based)",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return done(ctx, a.player.Play())
			}
			pos, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			return done(ctx, a.player.PlayPosition(pos))
		}),
	}
	return append(cmds, play)
}

// a negative delta must follow "--" so it is not read as a flag
const volumeExample = `  navimpd vol 40
  navimpd vol +5
  navimpd vol -- -5`

func (a *Application) volumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "vol <volume|+delta|-delta>",
		Short:   "Set or change the volume",
		Example: volumeExample,
		Args:    cobra.ExactArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			arg := args[0]
			n, err := atoi(strings.TrimPrefix(arg, "+"))
			if err != nil {
				return errors.Wrapf(err, "invalid volume %q", arg)
			}
			if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
				return done(ctx, a.player.ChangeVolume(n))
			}
			return done(ctx, a.player.SetVolume(n))
		}),
	}
}

func (a *Application) seekCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seek <seconds>",
		Short: "Jump to an offset in the current song",
		Args:  cobra.ExactArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			secs, err := cast.ToFloat64E(args[0])
			if err != nil {
				return errors.Wrapf(err, "invalid offset %q", args[0])
			}
			return done(ctx, a.player.Seek(secs))
		}),
	}
}

func (a *Application) repeatCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "repeat <off|queue|single>",
		Short:     "Set the repeat mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"off", "queue", "single"},
		RunE: a.online(func(ctx context.Context, args []string) error {
			mode, ok := domain.ParseRepeatMode(args[0])
			if !ok {
				return errors.Errorf("unknown repeat mode %q", args[0])
			}
			return done(ctx, a.player.SetRepeat(mode))
		}),
	}
}

func (a *Application) setRandom(on bool) *mpd.Future[struct{}]  { return a.player.SetRandom(on) }
func (a *Application) setConsume(on bool) *mpd.Future[struct{}] { return a.player.SetConsume(on) }

func (a *Application) toggleOptionCommand(use, short string, set func(bool) *mpd.Future[struct{}]) *cobra.Command {
	return &cobra.Command{
		Use:       use + " <on|off>",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: a.online(func(ctx context.Context, args []string) error {
			on, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			return done(ctx, set(on))
		}),
	}
}

func (a *Application) addCommand() *cobra.Command {
	var next bool
	cmd := &cobra.Command{
		Use:   "add <uri>...",
		Short: "Add songs to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			if next {
				return done(ctx, a.queue.AddAfterCurrent(args...))
			}
			return done(ctx, a.queue.Add(args...))
		}),
	}
	cmd.Flags().BoolVarP(&next, "next", "n", false, "insert after the current song")
	return cmd
}

func (a *Application) moveCommand() *cobra.Command {
	var to int
	var afterCurrent bool
	cmd := &cobra.Command{
		Use:   "move <position>...",
		Short: "Move queue entries (1-based positions) as one block",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			songs, err := a.selectSongs(ctx, args)
			if err != nil {
				return err
			}
			if afterCurrent {
				return done(ctx, a.queue.MoveAfterCurrent(songs))
			}
			if to < 1 {
				return errors.New("either --to or --after-current is required")
			}
			return done(ctx, a.queue.MoveToPosition(songs, to-1))
		}),
	}
	cmd.Flags().IntVar(&to, "to", 0, "target position of the first song (1-based, queue length + 1 for the end)")
	cmd.Flags().BoolVar(&afterCurrent, "after-current", false, "move right after the current song")
	cmd.MarkFlagsMutuallyExclusive("to", "after-current")
	return cmd
}

func (a *Application) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <position>...",
		Short: "Remove queue entries (1-based positions)",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			songs, err := a.selectSongs(ctx, args)
			if err != nil {
				return err
			}
			return done(ctx, a.queue.Remove(songs))
		}),
	}
}

func (a *Application) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the queue",
		Args:  cobra.NoArgs,
		RunE: a.online(func(ctx context.Context, _ []string) error {
			return done(ctx, a.queue.Clear())
		}),
	}
}

func (a *Application) shuffleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle",
		Short: "Shuffle the queue",
		Args:  cobra.NoArgs,
		RunE: a.online(func(ctx context.Context, _ []string) error {
			return done(ctx, a.queue.Shuffle())
		}),
	}
}

// selectSongs resolves 1-based positions against the current queue
func (a *Application) selectSongs(ctx context.Context, args []string) ([]domain.Song, error) {
	snap, err := a.queue.Snapshot().Wait(ctx)
	if err != nil {
		return nil, err
	}
	songs := make([]domain.Song, 0, len(args))
	for _, arg := range args {
		pos, err := parsePosition(arg)
		if err != nil {
			return nil, err
		}
		if pos >= len(snap.Songs) {
			return nil, errors.Errorf("position %s outside queue of %d", arg, len(snap.Songs))
		}
		songs = append(songs, snap.Songs[pos])
	}
	return songs, nil
}

func (a *Application) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <tag> <query>",
		Short: "Search the library (substring match, tag \"any\" for all tags)",
		Args:  cobra.ExactArgs(2),
		RunE: a.online(func(ctx context.Context, args []string) error {
			songs, err := a.library.Search(args[0], args[1]).Wait(ctx)
			if err != nil {
				return err
			}
			a.renderer.RenderSongs("Search results", songs)
			return nil
		}),
	}
}

func (a *Application) findCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find <tag> <value>",
		Short: "Find songs whose tag equals value",
		Args:  cobra.ExactArgs(2),
		RunE: a.online(func(ctx context.Context, args []string) error {
			songs, err := a.library.Find(args[0], args[1]).Wait(ctx)
			if err != nil {
				return err
			}
			a.renderer.RenderSongs("Matches", songs)
			return nil
		}),
	}
}

func (a *Application) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <tag>",
		Short: "List the distinct values of a tag",
		Args:  cobra.ExactArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			values, err := a.library.List(args[0]).Wait(ctx)
			if err != nil {
				return err
			}
			a.renderer.RenderValues(args[0], values)
			return nil
		}),
	}
}

func (a *Application) lsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [directory]",
		Short: "List every song below a library directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			songs, err := a.library.ListAll(dir).Wait(ctx)
			if err != nil {
				return err
			}
			a.renderer.RenderSongs(lo.Ternary(dir == "", "Library", dir), songs)
			return nil
		}),
	}
}

func (a *Application) updateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update [path]",
		Short: "Rescan the music database",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.online(func(ctx context.Context, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			job, err := a.library.Update(path).Wait(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("database update started (job %d)\n", job)
			return nil
		}),
	}
}

func (a *Application) outputsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "List audio outputs",
		Args:  cobra.NoArgs,
		RunE: a.online(func(ctx context.Context, _ []string) error {
			outputs, err := a.outputs.List().Wait(ctx)
			if err != nil {
				return err
			}
			a.renderer.RenderOutputs(outputs)
			return nil
		}),
	}
	for _, sw := range []struct {
		use string
		run func(int) *mpd.Future[struct{}]
	}{
		{"enable", func(id int) *mpd.Future[struct{}] { return a.outputs.Enable(id) }},
		{"disable", func(id int) *mpd.Future[struct{}] { return a.outputs.Disable(id) }},
		{"toggle", func(id int) *mpd.Future[struct{}] { return a.outputs.Toggle(id) }},
	} {
		run := sw.run
		cmd.AddCommand(&cobra.Command{
			Use:   sw.use + " <id>",
			Short: strings.ToUpper(sw.use[:1]) + sw.use[1:] + " an audio output",
			Args:  cobra.ExactArgs(1),
			RunE: a.online(func(ctx context.Context, args []string) error {
				id, err := atoi(args[0])
				if err != nil {
					return errors.Wrapf(err, "invalid output id %q", args[0])
				}
				return done(ctx, run(id))
			}),
		})
	}
	return cmd
}

func (a *Application) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a default configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(afero.NewOsFs(), path, force); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := toml.Marshal(a.cfg)
			if err != nil {
				return errors.Wrap(err, "failed to encode config")
			}
			if file := a.loader.ConfigFile(); file != "" {
				fmt.Printf("# %s\n", file)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, show)
	return cmd
}

// atoi parses a decimal integer, leading zeros allowed
func atoi(arg string) (int, error) {
	f, err := cast.ToFloat64E(strings.TrimSpace(arg))
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, errors.Errorf("%q is not a whole number", arg)
	}
	return int(f), nil
}

func parsePosition(arg string) (int, error) {
	n, err := atoi(arg)
	if err != nil || n < 1 {
		return 0, errors.Errorf("invalid position %q", arg)
	}
	return n - 1, nil
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, errors.Errorf("expected on or off, got %q", arg)
}
