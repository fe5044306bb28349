package clean

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"pixclean/artifact"
	"pixclean/imgio"
	"pixclean/okcolor"
	"pixclean/parallel"
	"pixclean/pipeline"
	"pixclean/raster"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/semaphore"
)

type CLICmd struct {
	Scan         string            `help:"Source folder to scan" default:"."`
	Dest         string            `help:"Destination folder for cleaned pictures. Relative to scan dir if not absolute. If same as scan dir, will overwrite source files." default:"cleaned"`
	Policy       string            `help:"Color removal policy applied before the finishing pass" enum:"none,blue,any-color,threshold" default:"any-color" env:"PIXCLEAN_POLICY" group:"pipeline"`
	Finish       bool              `help:"Flatten background tints to white after color removal" default:"true" negatable:"" env:"PIXCLEAN_FINISH" group:"pipeline"`
	Pipeline     string            `help:"YAML pipeline definition. Replaces --policy and --finish" group:"pipeline"`
	Target       string            `help:"Watermark color for the threshold policy, as #RGB or #RRGGBB" default:"#6464c8" group:"threshold"`
	Tolerance    uint              `help:"Blue channel tolerance for the threshold policy, 0 for the default of 50" default:"50" group:"threshold"`
	Format       string            `help:"Output format of cleaned pictures. GIF keeps at most 256 colors" enum:"same,png,jpeg,gif,bmp,tiff,webp,tga" default:"same"`
	PixelWorkers int               `help:"Chunks of a single picture processed concurrently, 0 for one per CPU" default:"1" env:"PIXCLEAN_PIXEL_WORKERS"`
	Fallback     bool              `help:"Copy the original picture to the destination when it cannot be cleaned" default:"true" negatable:""`
	DryRun       bool              `help:"Classify pixels and report, without writing anything"`
	Steps        pipeline.Pipeline `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if !imgio.Supported(c.Format) {
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}

	if c.Steps, err = c.buildPipeline(); err != nil {
		return err
	}
	return nil
}

func (c *CLICmd) buildPipeline() (pipeline.Pipeline, error) {
	if c.Pipeline != "" {
		cfg, err := pipeline.Load(c.Pipeline)
		if err != nil {
			return pipeline.Pipeline{}, err
		}
		return cfg.Build()
	}

	var cfg pipeline.Config
	if c.Policy != "none" {
		step := pipeline.Step{Policy: c.Policy}
		if c.Policy == "threshold" {
			target, err := parseHexColor(c.Target)
			if err != nil {
				return pipeline.Pipeline{}, err
			}
			step.Target = &target
			step.Tolerance = &c.Tolerance
		}
		cfg.Steps = append(cfg.Steps, step)
	}
	if c.Finish {
		cfg.Steps = append(cfg.Steps, pipeline.Step{Policy: "background-tint"})
	}

	if len(cfg.Steps) == 0 {
		return pipeline.Pipeline{}, fmt.Errorf("nothing to do: no policy and no finishing pass")
	}
	return cfg.Build()
}

type counters struct {
	processed atomic.Uint64
	fallbacks atomic.Uint64
	skipped   atomic.Uint64
	errors    atomic.Uint64
	rewritten atomic.Uint64
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if !c.DryRun {
		if err := os.MkdirAll(c.Dest, 0o755); err != nil {
			return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
		}
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	pixelWorkers := c.PixelWorkers
	if pixelWorkers < 1 {
		pixelWorkers = runtime.GOMAXPROCS(0)
	}

	// Pictures cleaned concurrently share one budget of chunk goroutines.
	chunks := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	opts := []artifact.Option{artifact.WithWorkers(pixelWorkers), artifact.WithLimiter(chunks)}

	slog.Info("cleaning", "dir", c.Scan, "dest", c.Dest, "pipeline", c.Steps.String(), "dry_run", c.DryRun)

	var stats counters
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				c.cleanFile(fileName, opts, &stats)
			}
		}(file.Name()))
	}

	wait(true)

	processed := stats.processed.Load()
	fallbacks := stats.fallbacks.Load()
	errCount := stats.errors.Load()
	slog.Info("stats", "processed", processed, "fallbacks", fallbacks, "skipped", stats.skipped.Load(),
		"errors", errCount, "rewritten_pixels", stats.rewritten.Load(), "total", processed+fallbacks+errCount)

	if errCount > 0 {
		return fmt.Errorf("error processing %d files", errCount)
	}
	return nil
}

func (c *CLICmd) cleanFile(fileName string, opts []artifact.Option, stats *counters) {
	filePath := filepath.Join(c.Scan, fileName)
	logger := slog.Default().With("file", filePath)

	img, imgType, err := imgio.Decode(filePath)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			stats.skipped.Add(1)
			logger.Debug("skipping unknown format")
			return
		}
		logger.Error("could not decode image", "error", err)
		c.fallback(logger, filePath, fileName, stats)
		return
	}

	bm := raster.FromImage(img)
	res, steps, ok := c.Steps.Clean(logger, bm, opts...)
	if !ok {
		c.fallback(logger, filePath, fileName, stats)
		return
	}

	var rewritten int
	for _, s := range steps {
		rewritten += s.Rewritten()
		logger.Debug("step", "policy", s.Policy, "rewritten", s.Rewritten(), "rules", s.ByRule())
	}
	stats.rewritten.Add(uint64(rewritten))

	shift := okcolor.Compare(okcolor.Summarize(bm.Pix, bm.Channels), okcolor.Summarize(res.Pix, res.Channels))
	logger.Info("cleaned", "pixels", bm.Width*bm.Height, "rewritten", rewritten,
		"lightness_gain", fmt.Sprintf("%.4f", shift.Lightness), "chroma_drop", fmt.Sprintf("%.4f", shift.Chroma))

	if c.DryRun {
		stats.processed.Add(1)
		return
	}

	dest, err := imgio.Save(res.Image(), imgType, c.Format, c.Dest, fileName)
	if err != nil {
		logger.Error("could not save image", "dir", c.Dest, "error", err)
		c.fallback(logger, filePath, fileName, stats)
		return
	}
	logger.Debug("saved", "to", dest)
	stats.processed.Add(1)
}

// fallback keeps the unprocessed original in the output set. Failing to do so,
// or having fallback disabled, counts the file as an error.
func (c *CLICmd) fallback(logger *slog.Logger, filePath, fileName string, stats *counters) {
	if !c.Fallback {
		stats.errors.Add(1)
		return
	}
	if c.DryRun || c.Dest == c.Scan {
		stats.fallbacks.Add(1)
		return
	}

	if err := copyFile(logger, filePath, filepath.Join(c.Dest, fileName)); err != nil {
		stats.errors.Add(1)
		logger.Error("could not keep original", "error", err)
		return
	}
	stats.fallbacks.Add(1)
}
