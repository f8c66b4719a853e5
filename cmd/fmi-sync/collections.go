package main

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

func newCollectionsCommand() *cli.Command {
	return &cli.Command{
		Name:   "collections",
		Usage:  "Inspect the collections of the target STAC API",
		Before: requireHost,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Fetch a collection by ID",
				ArgsUsage: "<collection-id>",
				Action:    getCollectionAction,
			},
			{
				Name:  "list",
				Usage: "List the synced collections",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "include collections without the suffix"},
					&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "page through the output"},
				},
				Action: listCollectionsAction,
			},
		},
	}
}

func getCollectionAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected 1 argument: collection id")
	}

	client, err := targetClient(cmd)
	if err != nil {
		return err
	}

	collection, err := client.GetCollection(ctx, cmd.Args().First())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(newCollectionSummary(collection), "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func listCollectionsAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 0 {
		return fmt.Errorf("no arguments expected")
	}

	client, err := targetClient(cmd)
	if err != nil {
		return err
	}

	suffix := cmd.String(suffixFlag.Name)
	all := cmd.Bool("all")
	var seq iter.Seq2[*stac.Collection, error] = func(yield func(*stac.Collection, error) bool) {
		for c, err := range client.GetCollections(ctx) {
			if err == nil && !all && !strings.HasSuffix(c.Id, suffix) {
				continue
			}
			if !yield(c, err) {
				return
			}
		}
	}
	marshal := func(c *stac.Collection) ([]byte, error) {
		return json.MarshalIndent(newCollectionSummary(c), "", "  ")
	}

	if cmd.Bool("interactive") {
		return printJSONArrayInteractive(os.Stdout, os.Stdin, seq, marshal)
	}

	entries, err := collectForCLI(seq, marshal)
	if err != nil {
		return err
	}
	return printJSONArray(os.Stdout, entries)
}
