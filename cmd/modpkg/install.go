package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modpkg/modpkg/internal/install"
	"github.com/modpkg/modpkg/internal/manifest"
	"github.com/modpkg/modpkg/internal/progress"
)

const installDesc = `
Install mods and all of their required dependencies into the mods directory.

Mods can be given by id, slug or name. Without arguments the dependencies
of minepkg.toml are installed.

	$ modpkg install jei journeymap --platform 1.12.2
	$ modpkg install 238222 --save
	$ modpkg install
`

func newInstallCmd(out io.Writer, opts *globalOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:     "install [name/slug/id...]",
		Short:   "install mods and their dependencies",
		Long:    installDesc,
		Aliases: []string{"i", "add"},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings(cmd)
			if err != nil {
				return err
			}

			man, err := loadManifest(settings.ManifestPath)
			if err != nil {
				return err
			}
			if len(args) == 0 && man == nil {
				return fmt.Errorf("no mods given and no manifest found at %s", settings.ManifestPath)
			}

			req := install.Request{}
			if len(args) == 0 {
				req, err = install.FromManifest(man, settings.ModsDirectory)
				if err != nil {
					return err
				}
			} else {
				req.Mods = args
				req.TargetDir = settings.ModsDirectory
			}

			manifestPlatform := ""
			if man != nil {
				manifestPlatform = man.Requirements.Minecraft
			}
			req.Platform, err = parsePlatform(opts.platformFlag(cmd), manifestPlatform, settings.PlatformVersion)
			if err != nil {
				return err
			}
			req.LockFile = settings.LockFilePath

			db, err := loadDatabase(settings.DatabasePath)
			if err != nil {
				return err
			}

			con := newConsole(out, settings.Verbose, settings.PlainOutput)
			source, client := newSource(settings)

			instOpts := install.SettingsOptions(settings)
			instOpts = append(instOpts,
				install.WithDatabase(db),
				install.WithRenderer(con.NewRenderer),
				install.OnProgress(con.Event),
			)
			inst := install.New(source, client, instOpts...)

			result, err := inst.Install(cmd.Context(), req)
			if err != nil {
				return installError(result, err)
			}

			if save && len(args) > 0 {
				if man == nil {
					man = manifest.New(filepath.Base(mustGetwd()), req.Platform.String())
				}
				for _, arg := range args {
					man.AddDependency(arg, dependencySource(arg))
				}
				if err := man.Save(settings.ManifestPath); err != nil {
					return err
				}
				con.Event(progressSaved(settings.ManifestPath))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "add the installed mods to minepkg.toml")
	return cmd
}

// platformFlag returns --platform only when it was set explicitly, so a
// manifest requirement wins over the settings file.
func (o *globalOptions) platformFlag(cmd *cobra.Command) string {
	if cmd.Flags().Changed("platform") {
		return o.platform
	}
	return ""
}

func loadManifest(path string) (*manifest.Manifest, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return manifest.Load(path)
}

// dependencySource is how a requested mod is recorded in the manifest.
func dependencySource(arg string) string {
	if _, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return manifest.ProviderCurse + ":" + arg
	}
	return "latest"
}

// downloadFailure summarizes failed jobs; the per-job details were
// already shown by the renderer.
type downloadFailure struct {
	summary string
	err     error
}

func (e *downloadFailure) Error() string { return e.summary }

func (e *downloadFailure) Unwrap() error { return e.err }

func installError(result *install.Result, err error) error {
	if result == nil || result.Report == nil || len(result.Report.Failed) == 0 {
		return err
	}

	names := make([]string, 0, len(result.Report.Failed))
	for _, je := range result.Report.Failed {
		names = append(names, je.Mod.Label())
	}
	return &downloadFailure{
		summary: fmt.Sprintf("%d of %d downloads failed: %s",
			len(result.Report.Failed), result.Report.Total(), strings.Join(names, ", ")),
		err: err,
	}
}

func progressSaved(path string) progress.Event {
	return progress.Event{Message: "Updated " + path, Level: progress.LevelSuccess}
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "modpack"
	}
	return wd
}
