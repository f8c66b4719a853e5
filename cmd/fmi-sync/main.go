package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/oseo"
	stacsync "github.com/robert-malhotra/fmi-stac-sync/pkg/sync"
)

const (
	stacAPIPath = "/geoserver/ogc/stac/v1/"
	oseoAPIPath = "/geoserver/rest/oseo/"
)

var (
	hostFlag = &cli.StringFlag{
		Name:    "host",
		Usage:   "GeoServer host, e.g. https://example.com",
		Sources: cli.EnvVars("FMI_SYNC_HOST"),
	}
	pwdFlag = &cli.StringFlag{
		Name:    "pwd",
		Usage:   "password for the OSEO REST API",
		Sources: cli.EnvVars("FMI_SYNC_PASSWORD"),
	}
	passwordFileFlag = &cli.StringFlag{
		Name:  "password-file",
		Usage: "CSV file whose first cell holds the password",
		Value: "passwords.txt",
	}
	userFlag = &cli.StringFlag{
		Name:  "user",
		Usage: "user for the OSEO REST API",
		Value: oseo.DefaultUser,
	}
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Aliases: []string{"t"},
		Usage:   "HTTP client timeout (e.g. 30s, 1m)",
		Value:   60 * time.Second,
	}
	suffixFlag = &cli.StringFlag{
		Name:  "suffix",
		Usage: "only target collections whose ID ends with this suffix are synced",
		Value: stacsync.DefaultSuffix,
	}
	retryPauseFlag = &cli.DurationFlag{
		Name:  "retry-pause",
		Usage: "pause between passes over items that failed to download",
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "trace, debug, info, warn or error",
		Value:   "info",
		Sources: cli.EnvVars("FMI_SYNC_LOG_LEVEL"),
	}
	logFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "auto, console or json",
		Value: "auto",
	}
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "fmi-sync",
		Usage: "Keep a GeoServer STAC catalog in step with the FMI static catalogs",
		Flags: []cli.Flag{
			hostFlag, pwdFlag, passwordFileFlag, userFlag, timeoutFlag,
			suffixFlag, retryPauseFlag, logLevelFlag, logFormatFlag,
		},
		Before:         setupLogging,
		DefaultCommand: "sync",
		Commands: []*cli.Command{
			newSyncCommand(),
			newPublishCommand(),
			newExportCommand(),
			newCollectionsCommand(),
		},
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logger := logging.NewLogger(&logging.Config{
		Level:   cmd.String(logLevelFlag.Name),
		Format:  cmd.String(logFormatFlag.Name),
		NoColor: os.Getenv("NO_COLOR") != "",
	})
	logging.SetDefault(logger)
	return logging.WithLogger(ctx, &logger), nil
}

// requireHost rejects commands that talk to GeoServer when --host is unset.
// The flag is not marked Required because export never needs it.
func requireHost(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if strings.TrimSpace(cmd.String(hostFlag.Name)) == "" {
		return ctx, fmt.Errorf("flag --host is required")
	}
	return ctx, nil
}

// endpoints derives the STAC API and OSEO REST roots from --host.
func endpoints(cmd *cli.Command) (stacURL, oseoURL string, err error) {
	host := strings.TrimRight(cmd.String(hostFlag.Name), "/")
	if host == "" {
		return "", "", fmt.Errorf("flag --host is required")
	}
	return host + stacAPIPath, host + oseoAPIPath, nil
}
