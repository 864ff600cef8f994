package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"outpaint-batch/internal/compose"
	"outpaint-batch/internal/config"
	"outpaint-batch/internal/httpclient"
	"outpaint-batch/internal/openaiimg"
	"outpaint-batch/internal/pipeline"
	"outpaint-batch/internal/prompts"
	"outpaint-batch/internal/replicate"
	"outpaint-batch/internal/sizing"
)

const defaultInputFile = "input.csv"

func main() {
	aspectRatio := flag.String("aspect-ratio", "16:9", "target aspect ratio: 16:9 (landscape) or 9:16 (portrait)")
	limit := flag.Int("limit", 0, "maximum number of non-blank prompts to process (0 = all)")
	outputDir := flag.String("output-dir", "generated_images", "directory for generated images")
	edgeFill := flag.String("edge-fill", "blank", "canvas border fill before outpainting: blank or blur")
	debug := flag.Bool("debug", false, "persist intermediate canvas and mask images")
	verbose := flag.Bool("verbose", false, "enable debug logging")

	flag.Usage = usage
	flag.Parse()

	csvFile := defaultInputFile
	if flag.NArg() > 0 {
		csvFile = flag.Arg(0)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}

	aspect, err := sizing.Resolve(*aspectRatio)
	if err != nil {
		fatal(err)
	}

	fillMode, err := compose.ParseFillMode(*edgeFill)
	if err != nil {
		fatal(err)
	}

	items, err := prompts.ReadFile(csvFile)
	if err != nil {
		fatal(err)
	}

	logger := newLogger(cfg, *verbose)

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gen := openaiimg.New(openaiimg.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.ImageModel,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	exp := replicate.New(replicate.Options{
		Token:        cfg.ReplicateToken,
		BaseURL:      cfg.ReplicateBaseURL,
		HTTPClient:   httpClient,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
	})

	pipe := pipeline.New(pipeline.Options{
		Generator: gen,
		Expander:  exp,
		Aspect:    aspect,
		OutputDir: *outputDir,
		EdgeFill:  fillMode,
		Debug:     *debug || cfg.Debug,
		Limit:     *limit,
		Logger:    logger,
		OnResult:  printResult,
	})

	fmt.Printf("Starting %s image generation from %s\n", aspect.Ratio, csvFile)
	if *limit > 0 {
		fmt.Printf("Limiting to %d image(s)\n", *limit)
	}
	fmt.Printf("Process: %s (%s) -> canvas extension -> %s -> %s output (%s)\n\n",
		cfg.ImageModel, aspect.BaseSize(), "flux-fill-pro", aspect.Ratio, aspect.FinalSize())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, _, err := pipe.Run(ctx, items)
	if err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}

	fmt.Printf("\nDone: %d attempted, %s, %s\n",
		summary.Attempted,
		color.GreenString("%d succeeded", summary.Succeeded),
		color.RedString("%d failed", summary.Failed),
	)

	if errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

func printResult(res pipeline.Result) {
	if res.Failed() {
		fmt.Printf("%s line %d (%s): %s: %v\n",
			color.RedString("✗"), res.Line, truncate(res.Prompt, 60), res.Kind, res.Err)
		return
	}
	fmt.Printf("%s line %d (%s) -> %s\n",
		color.GreenString("✓"), res.Line, truncate(res.Prompt, 60), res.Path)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func newLogger(cfg config.Config, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"Usage: %s [flags] [csv_file]\n\n"+
			"Generates an image per non-blank CSV line, then outpaints it to the\n"+
			"target aspect ratio. Images are saved as {line_number}.png.\n\n"+
			"csv_file defaults to %s. Flags:\n",
		os.Args[0], defaultInputFile)
	flag.PrintDefaults()
	fmt.Fprintf(flag.CommandLine.Output(),
		"\nRequired environment (or .env): OPENAI_API_KEY, REPLICATE_API_TOKEN\n")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
	os.Exit(1)
}
