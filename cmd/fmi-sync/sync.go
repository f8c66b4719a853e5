package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/catalog"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
	stacsync "github.com/robert-malhotra/fmi-stac-sync/pkg/sync"
)

func newSyncCommand() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Push the items missing from the target collections (default)",
		Before: requireHost,
		Action: syncAction,
	}
}

func syncAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 0 {
		return fmt.Errorf("no arguments expected")
	}

	source, err := sourceClient(cmd)
	if err != nil {
		return err
	}
	target, err := targetClient(cmd)
	if err != nil {
		return err
	}
	rest, err := restClient(cmd)
	if err != nil {
		return err
	}
	table, err := catalog.Default()
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info().Str("target", target.BaseURL().String()).Msg("Updating STAC catalog")

	syncer := stacsync.New(source, target, rest, rasterInspector(cmd),
		stacsync.WithSuffix(cmd.String(suffixFlag.Name)),
		stacsync.WithRetryPause(retryPause(cmd)),
		stacsync.WithTable(table),
	)
	report, err := syncer.Run(ctx)
	if report != nil {
		for _, c := range report.Collections {
			logging.FromContext(ctx).Info().
				Str("collection", c.ID).
				Int("source", c.Source).
				Int("target", c.Target).
				Int("pushed", c.Pushed).
				Msg("Collection synced")
		}
	}
	return err
}
