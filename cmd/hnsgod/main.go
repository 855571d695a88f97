package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Acktarius/hnsgo/config"
	"github.com/Acktarius/hnsgo/hlog"
	"github.com/Acktarius/hnsgo/service"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML configuration file",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory for the header store and learned-peer file",
	}
	dohPortFlag = &cli.IntFlag{
		Name:  "doh-port",
		Usage: "DNS-over-HTTPS listen port",
	}
	dotPortFlag = &cli.IntFlag{
		Name:  "dot-port",
		Usage: "DNS-over-TLS listen port",
	}
	verboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "log a notice that verbose mode is on (debug records are always emitted)",
	}
)

var app = &cli.App{
	Name:  "hnsgod",
	Usage: "a local SPV Handshake-name resolver",
	Flags: []cli.Flag{configFlag, dataDirFlag, dohPortFlag, dotPortFlag, verboseFlag},
	Action: run,
}

func run(c *cli.Context) error {
	cfg := config.DefaultConfig
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = *loaded
	}
	if v := c.String("datadir"); v != "" {
		cfg.DataDir = v
	}
	if v := c.Int("doh-port"); v != 0 {
		cfg.DoHPort = v
	}
	if v := c.Int("dot-port"); v != 0 {
		cfg.DoTPort = v
	}

	log := hlog.New(hlog.NewTerminalHandler(os.Stderr))
	if c.Bool("verbose") {
		log.Debug("verbose logging requested")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	svc, err := service.New(&cfg, log)
	if err != nil {
		return fmt.Errorf("building service: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	log.Info("hnsgod running", "doh_port", cfg.DoHPort, "dot_port", cfg.DoTPort)

	<-ctx.Done()
	log.Info("shutting down")
	svc.Stop()
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
