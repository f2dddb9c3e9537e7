package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/modpkg/modpkg/internal/config"
	"github.com/modpkg/modpkg/internal/http"
	"github.com/modpkg/modpkg/internal/metadata"
	"github.com/modpkg/modpkg/internal/moddb"
	"github.com/modpkg/modpkg/internal/model"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	dir        string
	platform   string
	dbPath     string
	manifest   string
	verbose    bool
	plain      bool
	jobs       int

	cancelOnFailure bool
	keepPartial     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Cancelled.")
		stop()
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	stop()
	os.Exit(1)
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "modpkg",
		Short:         "Install Minecraft mods and their dependencies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "path to a JSON settings file")
	f.StringVar(&opts.dir, "dir", "", "mods directory (overrides settings)")
	f.StringVar(&opts.platform, "platform", "", "Minecraft version to install for, e.g. 1.12.2")
	f.StringVar(&opts.dbPath, "db", "", "path to the local mod index")
	f.StringVar(&opts.manifest, "manifest", "", "path to minepkg.toml")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "show verbose output and debug logs")
	f.BoolVar(&opts.plain, "plain", false, "print plain lines instead of progress bars")
	f.IntVarP(&opts.jobs, "jobs", "j", 0, "maximum parallel downloads (0 = unbounded)")
	f.BoolVar(&opts.cancelOnFailure, "cancel-on-failure", false, "stop all downloads after the first failure")
	f.BoolVar(&opts.keepPartial, "keep-partial", false, "keep partially downloaded files")

	cmd.AddCommand(
		newInstallCmd(out, opts),
		newResolveCmd(out, opts),
	)
	return cmd
}

// settings loads the settings file and applies the flags that were set.
func (o *globalOptions) settings(cmd *cobra.Command) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if o.configPath != "" {
		var err error
		settings, err = config.Load(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		settings.ModsDirectory = o.dir
	}
	if flags.Changed("platform") {
		settings.PlatformVersion = o.platform
	}
	if flags.Changed("db") {
		settings.DatabasePath = o.dbPath
	}
	if flags.Changed("manifest") {
		settings.ManifestPath = o.manifest
	}
	if flags.Changed("jobs") {
		settings.MaxConcurrentDownloads = o.jobs
	}
	if flags.Changed("cancel-on-failure") {
		settings.CancelOnFailure = o.cancelOnFailure
	}
	if flags.Changed("keep-partial") {
		settings.KeepPartialFiles = o.keepPartial
	}
	if o.verbose {
		settings.Verbose = true
	}
	if o.plain {
		settings.PlainOutput = true
	}

	configureLogging(settings.Verbose)
	return settings, nil
}

func configureLogging(verbose bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !verbose})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func newSource(settings *config.Settings) (metadata.Source, *http.Client) {
	client := http.NewClient(settings.RequestTimeoutDuration()).WithLogger(logrus.StandardLogger())
	return metadata.NewAPISource(client, settings.APIBaseURL).WithLogger(logrus.StandardLogger()), client
}

// loadDatabase returns nil when there is no local index; identifiers are
// then taken as mod ids.
func loadDatabase(path string) (*moddb.DB, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.WithField("file", path).Debug("no local mod index")
		return nil, nil
	}
	return moddb.Load(path)
}

func parsePlatform(candidates ...string) (model.PlatformVersion, error) {
	for _, c := range candidates {
		if c != "" {
			return model.ParsePlatformVersion(c)
		}
	}
	return model.PlatformVersion{}, errors.New("no Minecraft version given: use --platform or set requirements.minecraft in minepkg.toml")
}
