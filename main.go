package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/yhkl-dev/navimpd/config"
	"github.com/yhkl-dev/navimpd/device"
	"github.com/yhkl-dev/navimpd/library"
	"github.com/yhkl-dev/navimpd/mpd"
	"github.com/yhkl-dev/navimpd/player"
	"github.com/yhkl-dev/navimpd/queue"
	"github.com/yhkl-dev/navimpd/ui"
	"go.uber.org/multierr"
)

var log = logging.Logger("navimpd")

// subsystems are the loggers whose level follows log.level
var subsystems = []string{"navimpd", "mpd", "events", "queue"}

type Application struct {
	loader     *config.Loader
	configFile string
	cfg        *config.Config

	client   *mpd.Client
	player   player.Player
	library  library.Library
	queue    *queue.Manager
	outputs  *device.Outputs
	renderer *ui.Renderer
}

func newApplication() *Application {
	return &Application{loader: config.NewLoader(afero.NewOsFs())}
}

// load reads the configuration and applies the log level
func (a *Application) load() error {
	if a.configFile != "" {
		a.loader.SetConfigFile(a.configFile)
	}
	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	if err := setLogLevel(cfg.Log.Level); err != nil {
		return err
	}
	a.cfg = cfg
	log.Debugw("configuration loaded", "file", a.loader.ConfigFile(), "address", cfg.Server.Address, "port", cfg.Server.Port)
	return nil
}

func setLogLevel(level string) error {
	for _, name := range subsystems {
		if err := logging.SetLogLevel(name, level); err != nil {
			return errors.Wrapf(err, "invalid log level %q", level)
		}
	}
	return nil
}

// watchConfig follows log level edits in the config file while a long
// running command is active
func (a *Application) watchConfig() {
	if a.loader.ConfigFile() == "" {
		return
	}
	a.loader.Watch(func(cfg *config.Config) {
		if err := setLogLevel(cfg.Log.Level); err != nil {
			log.Warnw("ignoring config change", "err", err)
			return
		}
		log.Infow("log level reloaded", "level", cfg.Log.Level)
	}, func(err error) {
		log.Warnw("config reload failed", "err", err)
	})
}

// connect opens the server connection and builds the facades on top of it
func (a *Application) connect(ctx context.Context) error {
	a.client = mpd.New(a.cfg.Server)
	if err := a.client.Connect(ctx); err != nil {
		return errors.Wrapf(err, "failed to connect to %s", mpd.Address(a.cfg.Server.Address, a.cfg.Server.Port))
	}
	a.player = player.NewMPDPlayer(a.client)
	a.library = library.NewMPDLibrary(a.client)
	a.queue = queue.NewManager(a.client)
	a.outputs = device.NewOutputs(a.client)
	a.renderer = ui.NewRenderer(os.Stdout, a.cfg.UI.MaxColumnWidth, ui.TerminalWidth())
	return nil
}

func (a *Application) close() {
	if a.client == nil {
		return
	}
	if err := a.client.Disconnect(); err != nil {
		log.Warnw("disconnect failed", "err", err)
	}
}

// online wraps a command body so it runs with a live connection
func (a *Application) online(run func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.connect(ctx); err != nil {
			return err
		}
		defer a.close()
		return run(ctx, args)
	}
}

func (a *Application) rootCommand() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "navimpd",
		Short:         "Command line client for MPD music servers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default $HOME/.config/navimpd.toml)")
	flags.String("host", config.DefaultAddress, "server address")
	flags.Int("port", config.DefaultPort, "server port")
	flags.String("password", "", "server password")
	flags.String("directory", "", "music library root used to resolve song paths")
	flags.Duration("timeout", config.DefaultTimeout, "command timeout")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	v := a.loader.Viper()
	var bindErr error
	for key, flag := range map[string]string{
		"server.address":   "host",
		"server.port":      "port",
		"server.password":  "password",
		"server.directory": "directory",
		"server.timeout":   "timeout",
		"log.level":        "log-level",
	} {
		bindErr = multierr.Append(bindErr, errors.Wrapf(v.BindPFlag(key, flags.Lookup(flag)), "bind flag %q", flag))
	}
	if bindErr != nil {
		return nil, bindErr
	}

	root.AddCommand(
		a.statusCommand(),
		a.queueCommand(),
		a.statsCommand(),
		a.watchCommand(),
		a.addCommand(),
		a.moveCommand(),
		a.removeCommand(),
		a.clearCommand(),
		a.shuffleCommand(),
		a.searchCommand(),
		a.findCommand(),
		a.listCommand(),
		a.lsCommand(),
		a.updateCommand(),
		a.volumeCommand(),
		a.seekCommand(),
		a.repeatCommand(),
		a.toggleOptionCommand("random", "Switch random playback", a.setRandom),
		a.toggleOptionCommand("consume", "Switch consume mode", a.setConsume),
		a.outputsCommand(),
		a.configCommand(),
	)
	root.AddCommand(a.transportCommands()...)
	return root, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := newApplication()
	root, err := app.rootCommand()
	if err == nil {
		err = root.ExecuteContext(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "navimpd: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
