// Command tapsim plays the public tap page from a terminal: it records a
// tap for a tag, resolves its redirect and prints where a browser would
// have been sent.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/iliyamo/nfc-tracker/internal/logger"
	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/tapclient"
)

func main() {
	api := flag.String("api", "http://localhost:5000/api", "API base URL")
	tag := flag.String("tag", "", "NFC tag id to tap")
	lat := flag.Float64("lat", 0, "latitude to report")
	lon := flag.Float64("lon", 0, "longitude to report")
	accuracy := flag.Float64("accuracy", 10, "reported accuracy in meters")
	deny := flag.Bool("deny", false, "behave as if location permission was denied")
	timeout := flag.Duration("location-timeout", tapclient.DefaultLocationTimeout, "how long to wait for a location fix")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	log, err := logger.New(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tapsim:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var locator tapclient.Locator
	switch {
	case *deny:
		locator = tapclient.DeniedLocator{}
	case *lat != 0 || *lon != 0:
		locator = tapclient.StaticLocator{Location: model.Location{Latitude: *lat, Longitude: *lon, Accuracy: *accuracy}}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := tapclient.NewClient(*api, nil)
	diag := tapclient.NewDiagnostics(client, "tapsim://"+*tag, log)
	o := &tapclient.Orchestrator{
		API:       client,
		Locator:   locator,
		Navigator: tapclient.WriterNavigator{W: os.Stdout},
		Env: model.ClientEnv{
			Platform: runtime.GOOS + "/" + runtime.GOARCH,
			Language: os.Getenv("LANG"),
		},
		Diagnostics:     diag,
		LocationTimeout: *timeout,
		Log:             log,
	}

	start := time.Now()
	res := o.Run(ctx, *tag)
	diag.Wait()

	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "tap failed at %s: %v\n", res.FailedAt, res.Err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "redirected in %s\n", time.Since(start).Round(time.Millisecond))
}
