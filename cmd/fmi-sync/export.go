package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/catalog"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/export"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
)

const (
	dirFlagName        = "dir"
	collectionFlagName = "collection"
)

func newDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  dirFlagName,
		Usage: "root directory of the exported catalog",
		Value: export.RootID,
	}
}

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the FMI catalogs as a normalized static STAC catalog",
		Flags: []cli.Flag{
			newDirFlag(),
			&cli.StringSliceFlag{
				Name:  collectionFlagName,
				Usage: "published collection ID to export (repeatable, default all)",
			},
		},
		Action: exportAction,
	}
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 0 {
		return fmt.Errorf("no arguments expected")
	}

	source, err := sourceClient(cmd)
	if err != nil {
		return err
	}
	table, err := catalog.Default()
	if err != nil {
		return err
	}

	e := export.NewExporter(source, rasterInspector(cmd), table,
		export.WithRetryPause(retryPause(cmd)),
		export.WithCollections(cmd.StringSlice(collectionFlagName)...),
	)
	counts, err := e.Export(ctx, cmd.String(dirFlagName))
	for id, n := range counts {
		logging.FromContext(ctx).Info().Str("collection", id).Int("items", n).Msg("Exported collection")
	}
	return err
}
