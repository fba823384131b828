// Command dgidgateway runs the DG-ID routing gateway: it binds a local
// YSF-framed repeater link, builds the configured DG-ID directory, and
// runs the routing engine until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/dgidgateway/dgidgateway/internal/aprs"
	"github.com/dgidgateway/dgidgateway/internal/callhistory"
	"github.com/dgidgateway/dgidgateway/internal/config"
	"github.com/dgidgateway/dgidgateway/internal/dgid"
	"github.com/dgidgateway/dgidgateway/internal/engine"
	"github.com/dgidgateway/dgidgateway/internal/logging"
	"github.com/dgidgateway/dgidgateway/internal/reflectors"
	"github.com/dgidgateway/dgidgateway/internal/repeater"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("dgidgateway", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	showVersion := fs.Bool("version", false, "show version and exit")
	fs.BoolVar(showVersion, "v", false, "show version and exit")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: dgidgateway [-v|--version] [config-path]")
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Printf("dgidgateway %s\n", version)
		return 0
	}

	configPath := config.DefaultPath(runtime.GOOS)
	if fs.NArg() > 0 {
		configPath = fs.Arg(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dgidgateway: config: %v\n", err)
		return 1
	}

	log, err := logging.New(logging.Config{
		Level: cfg.Log.DisplayLevel,
		File:  cfg.Log.FilePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dgidgateway: logging: %v\n", err)
		return 1
	}
	log.Info("dgidgateway starting", logging.String("version", version), logging.String("config", configPath))

	refl := reflectors.New(cfg.Network.YSFHostsPath, cfg.Network.YSFHostsURL,
		time.Duration(cfg.Reflectors.RefreshHours)*time.Hour, log.WithComponent("reflectors"))
	if err := refl.LoadFile(); err != nil {
		log.Warn("reflectors: load failed", logging.Err(err))
	}

	rpt, err := repeater.New(cfg.Network.LocalAddress, cfg.Network.LocalPort,
		cfg.Network.RepeaterAddress, cfg.Network.RepeaterPort, log.WithComponent("repeater"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dgidgateway: repeater: %v\n", err)
		return 1
	}

	table, err := dgid.Build(cfg.DGIds, cfg.Identity, refl, log.WithComponent("dgid"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "dgidgateway: dgid directory: %v\n", err)
		return 1
	}

	var aprsWriter *aprs.Writer
	if cfg.APRS.Enabled {
		aprsWriter = aprs.NewWriter(cfg.Identity.Callsign, cfg.Identity.Suffix,
			cfg.APRS.Address, cfg.APRS.Port, cfg.APRS.Suffix, false, log.WithComponent("aprs"))
		aprsWriter.SetInfo(cfg.Identity.TXFrequency, cfg.Identity.RXFrequency, cfg.APRS.Description)
		if cfg.APRS.GPSDEnabled {
			aprsWriter.SetGPSDLocation(cfg.APRS.GPSDAddress, strconv.Itoa(cfg.APRS.GPSDPort))
		} else {
			aprsWriter.SetStaticLocation(cfg.Identity.Latitude, cfg.Identity.Longitude, cfg.Identity.Height)
		}
	}

	var history *callhistory.Store
	if cfg.Database.Enabled {
		history, err = callhistory.Open(cfg.Database.Path, log.WithComponent("callhistory"))
		if err != nil {
			log.Warn("callhistory: disabled, open failed", logging.Err(err))
			history = nil
		}
	}

	eng := engine.New(rpt, table, aprsWriter, history, log)
	if err := eng.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "dgidgateway: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", logging.String("signal", sig.String()))
		cancel()
	}()

	reflCtx, reflCancel := context.WithCancel(ctx)
	defer reflCancel()
	go refl.Run(reflCtx)

	eng.Run(ctx)

	log.Info("dgidgateway stopped")
	return 0
}
