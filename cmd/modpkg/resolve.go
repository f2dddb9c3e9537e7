package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/modpkg/modpkg/internal/install"
	"github.com/modpkg/modpkg/internal/model"
)

const resolveDesc = `
Resolve mods and print every artifact an install would download, without
downloading anything.

	$ modpkg resolve jei --platform 1.12.2
`

func newResolveCmd(out io.Writer, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [name/slug/id...]",
		Short: "print the dependency closure of mods",
		Long:  resolveDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := opts.settings(cmd)
			if err != nil {
				return err
			}

			platform, err := parsePlatform(opts.platformFlag(cmd), settings.PlatformVersion)
			if err != nil {
				return err
			}

			db, err := loadDatabase(settings.DatabasePath)
			if err != nil {
				return err
			}

			source, client := newSource(settings)
			con := newConsole(cmd.ErrOrStderr(), settings.Verbose, true)
			inst := install.New(source, client,
				install.WithDatabase(db),
				install.WithResolveLimit(settings.MaxConcurrentResolves),
				install.OnProgress(con.Event),
			)

			records, err := inst.Resolve(cmd.Context(), args, platform)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, recordTable(records))
			return nil
		},
	}
}

func recordTable(records []*model.ModRecord) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("ID", "NAME", "FILE", "DEPENDENCIES")
	for _, rec := range records {
		table.AddRow(rec.ModID, rec.Label(), rec.DiskName(), strings.Join(rec.DependencyIDs, ","))
	}
	return table
}
