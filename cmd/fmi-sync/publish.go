package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/export"
)

func newPublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Create or update a collection and its items from an exported catalog",
		ArgsUsage: "<collection-id>",
		Flags:     []cli.Flag{newDirFlag()},
		Before:    requireHost,
		Action:    publishAction,
	}
}

func publishAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: collection id")
	}

	target, err := targetClient(cmd)
	if err != nil {
		return err
	}
	rest, err := restClient(cmd)
	if err != nil {
		return err
	}

	_, err = export.Publish(ctx, cmd.String(dirFlagName), cmd.Args().First(), target, rest)
	return err
}
