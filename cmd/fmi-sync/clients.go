package main

import (
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/client"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/oseo"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/raster"
)

const userAgent = "fmi-sync"

// sourceClient reads the FMI static catalog; every href it gets is absolute.
func sourceClient(cmd *cli.Command) (*client.Client, error) {
	return client.NewClient("",
		client.WithTimeout(cmd.Duration(timeoutFlag.Name)),
		client.WithMiddleware(client.UserAgent(userAgent)),
	)
}

func targetClient(cmd *cli.Command) (*client.Client, error) {
	stacURL, _, err := endpoints(cmd)
	if err != nil {
		return nil, err
	}
	return client.NewClient(stacURL,
		client.WithTimeout(cmd.Duration(timeoutFlag.Name)),
		client.WithMiddleware(client.UserAgent(userAgent)),
	)
}

func restClient(cmd *cli.Command) (*oseo.Client, error) {
	_, oseoURL, err := endpoints(cmd)
	if err != nil {
		return nil, err
	}
	pwd, err := resolvePassword(cmd.String(pwdFlag.Name), cmd.String(passwordFileFlag.Name), promptPassword)
	if err != nil {
		return nil, err
	}
	return oseo.NewClient(oseoURL,
		oseo.WithTimeout(cmd.Duration(timeoutFlag.Name)),
		oseo.WithBasicAuth(cmd.String(userFlag.Name), pwd),
	)
}

func rasterInspector(cmd *cli.Command) *raster.Inspector {
	return raster.NewInspector(
		raster.WithHTTPClient(&http.Client{Timeout: cmd.Duration(timeoutFlag.Name)}),
	)
}

func retryPause(cmd *cli.Command) time.Duration {
	return cmd.Duration(retryPauseFlag.Name)
}
