package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"outpaint-batch/internal/compose"
	"outpaint-batch/internal/prompts"
	"outpaint-batch/internal/sizing"
)

// State tracks how far an item made it through the pipeline.
type State string

const (
	StatePending       State = "pending"
	StateBaseGenerated State = "base_generated"
	StateComposed      State = "composed"
	StateExpanded      State = "expanded"
	StateSaved         State = "saved"
	StateFailed        State = "failed"
)

// Kind classifies a per-item failure. Configuration problems never reach
// here; they abort the run before the first item.
type Kind string

const (
	KindBaseGenerationFailed Kind = "base_generation_failed"
	KindComposeFailed        Kind = "compose_failed"
	KindOutpaintFailed       Kind = "outpaint_failed"
	KindDimensionMismatch    Kind = "dimension_mismatch"
	KindSaveFailed           Kind = "save_failed"
)

// Result is the outcome of one item. Failures carry the kind and the
// underlying error; successes carry the written path.
type Result struct {
	Line   int
	Prompt string
	State  State
	Path   string
	Kind   Kind
	Err    error
}

func (r Result) Failed() bool {
	return r.State == StateFailed
}

// Summary accumulates the run totals reported at the end.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Generator produces base image bytes for a prompt at an exact size.
type Generator interface {
	Generate(ctx context.Context, prompt string, width, height int) ([]byte, error)
}

// Expander fills the masked canvas borders and returns the final image bytes.
type Expander interface {
	Expand(ctx context.Context, canvasPNG, maskPNG []byte, prompt string) ([]byte, error)
}

type Options struct {
	Generator Generator
	Expander  Expander
	Aspect    sizing.AspectConfig
	OutputDir string
	EdgeFill  compose.FillMode
	Debug     bool
	Limit     int
	Logger    *slog.Logger

	// OnResult is called after each item settles, successes and failures
	// alike. Optional.
	OnResult func(Result)
}

// Pipeline runs each prompt through generate, compose, expand and save, one
// item at a time. A failed item is recorded and the run moves on.
type Pipeline struct {
	gen       Generator
	exp       Expander
	aspect    sizing.AspectConfig
	outputDir string
	edgeFill  compose.FillMode
	debug     bool
	limit     int
	logger    *slog.Logger
	onResult  func(Result)
}

func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	edgeFill := opts.EdgeFill
	if edgeFill == "" {
		edgeFill = compose.FillBlank
	}

	return &Pipeline{
		gen:       opts.Generator,
		exp:       opts.Expander,
		aspect:    opts.Aspect,
		outputDir: opts.OutputDir,
		edgeFill:  edgeFill,
		debug:     opts.Debug,
		limit:     opts.Limit,
		logger:    logger,
		onResult:  opts.OnResult,
	}
}

// Run processes items sequentially and returns the totals together with the
// per-item results. The returned error is reserved for setup problems
// (unwritable output directory); item failures never surface through it.
func (p *Pipeline) Run(ctx context.Context, items []prompts.Item) (Summary, []Result, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return Summary{}, nil, fmt.Errorf("create output directory: %w", err)
	}
	if p.debug {
		if err := os.MkdirAll(p.debugDir(), 0o755); err != nil {
			return Summary{}, nil, fmt.Errorf("create debug directory: %w", err)
		}
	}

	var summary Summary
	var results []Result
	for _, item := range items {
		if p.limit > 0 && summary.Attempted >= p.limit {
			p.logger.Info("prompt limit reached", "limit", p.limit)
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, results, err
		}

		summary.Attempted++
		res := p.processItem(ctx, item)
		if res.Failed() {
			summary.Failed++
			p.logger.Error("item failed",
				"line", res.Line,
				"kind", string(res.Kind),
				"err", res.Err,
			)
		} else {
			summary.Succeeded++
			p.logger.Info("item saved", "line", res.Line, "path", res.Path)
		}

		results = append(results, res)
		if p.onResult != nil {
			p.onResult(res)
		}
	}

	return summary, results, nil
}

// processItem drives one item through the state machine. Each transition is
// attempted exactly once; the first failure settles the item.
func (p *Pipeline) processItem(ctx context.Context, item prompts.Item) Result {
	res := Result{Line: item.Line, Prompt: item.Text, State: StatePending}

	p.logger.Info("generating base image",
		"line", item.Line,
		"size", p.aspect.BaseSize(),
	)
	baseBytes, err := p.gen.Generate(ctx, item.Text, p.aspect.BaseWidth, p.aspect.BaseHeight)
	if err != nil {
		return res.fail(KindBaseGenerationFailed, err)
	}
	base, _, _, err := compose.Decode(baseBytes)
	if err != nil {
		return res.fail(KindBaseGenerationFailed, fmt.Errorf("base image: %w", err))
	}
	res.State = StateBaseGenerated

	canvas, mask, err := compose.Compose(base, p.aspect.FinalWidth, p.aspect.FinalHeight, p.edgeFill)
	if err != nil {
		return res.fail(KindComposeFailed, err)
	}
	canvasPNG, err := compose.EncodePNG(canvas)
	if err != nil {
		return res.fail(KindComposeFailed, err)
	}
	maskPNG, err := compose.EncodePNG(mask)
	if err != nil {
		return res.fail(KindComposeFailed, err)
	}
	res.State = StateComposed

	if p.debug {
		p.writeDebugArtifacts(item.Line, canvasPNG, maskPNG)
	}

	p.logger.Info("outpainting to final size",
		"line", item.Line,
		"size", p.aspect.FinalSize(),
	)
	finalBytes, err := p.exp.Expand(ctx, canvasPNG, maskPNG, item.Text)
	if err != nil {
		return res.fail(KindOutpaintFailed, err)
	}

	_, gotW, gotH, err := compose.Decode(finalBytes)
	if err != nil {
		return res.fail(KindOutpaintFailed, fmt.Errorf("final image: %w", err))
	}
	if gotW != p.aspect.FinalWidth || gotH != p.aspect.FinalHeight {
		return res.fail(KindDimensionMismatch, fmt.Errorf(
			"outpainted image is %dx%d, want %dx%d",
			gotW, gotH, p.aspect.FinalWidth, p.aspect.FinalHeight,
		))
	}
	res.State = StateExpanded

	path := filepath.Join(p.outputDir, fmt.Sprintf("%d.png", item.Line))
	if err := os.WriteFile(path, finalBytes, 0o644); err != nil {
		return res.fail(KindSaveFailed, err)
	}

	res.State = StateSaved
	res.Path = path
	return res
}

func (r Result) fail(kind Kind, err error) Result {
	r.State = StateFailed
	r.Kind = kind
	r.Err = err
	return r
}

func (p *Pipeline) debugDir() string {
	return filepath.Join(p.outputDir, "debug")
}

// writeDebugArtifacts persists the intermediate canvas and mask. A failed
// write is logged and ignored; debug output never fails an item.
func (p *Pipeline) writeDebugArtifacts(line int, canvasPNG, maskPNG []byte) {
	canvasPath := filepath.Join(p.debugDir(), fmt.Sprintf("%d_canvas.png", line))
	if err := os.WriteFile(canvasPath, canvasPNG, 0o644); err != nil {
		p.logger.Warn("write debug canvas failed", "line", line, "err", err)
	}

	maskPath := filepath.Join(p.debugDir(), fmt.Sprintf("%d_mask.png", line))
	if err := os.WriteFile(maskPath, maskPNG, 0o644); err != nil {
		p.logger.Warn("write debug mask failed", "line", line, "err", err)
	}
}
