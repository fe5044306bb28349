package main

import (
	"log/slog"
	"os"

	"pixclean/clean"
	"pixclean/parallel"

	"github.com/alecthomas/kong"
)

type cli struct {
	Workers int          `help:"Pictures processed concurrently, 0 for one per CPU" default:"0" env:"PIXCLEAN_WORKERS"`
	Debug   bool         `help:"Log per-step classification details" env:"PIXCLEAN_DEBUG"`
	Clean   clean.CLICmd `cmd:"" help:"Remove watermarks, color casts and background tints from scanned pictures"`
}

func main() {
	var args cli
	kctx := kong.Parse(&args,
		kong.Name("pixclean"),
		kong.Description("Scanned page artifact removal"),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if args.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	pool := parallel.Start(args.Workers)
	slog.Info("running", "command", kctx.Command(), "workers", pool.Workers())

	err := kctx.Run(pool.Do, pool.Wait)
	kctx.FatalIfErrorf(err)
}
