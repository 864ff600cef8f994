package sizing

import (
	"fmt"
	"sort"
)

// Axis is the direction in which the canvas grows from base to final size.
type Axis int

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

// AspectConfig maps a target aspect ratio to the fixed base generation size
// and the final extended size.
type AspectConfig struct {
	Ratio string

	BaseWidth  int
	BaseHeight int

	FinalWidth  int
	FinalHeight int

	Axis Axis
}

// Extension returns the total number of pixels added along the extended axis.
func (c AspectConfig) Extension() int {
	if c.Axis == AxisVertical {
		return c.FinalHeight - c.BaseHeight
	}
	return c.FinalWidth - c.BaseWidth
}

func (c AspectConfig) BaseSize() string {
	return fmt.Sprintf("%dx%d", c.BaseWidth, c.BaseHeight)
}

func (c AspectConfig) FinalSize() string {
	return fmt.Sprintf("%dx%d", c.FinalWidth, c.FinalHeight)
}

var aspects = map[string]AspectConfig{
	"16:9": {
		Ratio:       "16:9",
		BaseWidth:   1536,
		BaseHeight:  1024,
		FinalWidth:  1824,
		FinalHeight: 1024,
		Axis:        AxisHorizontal,
	},
	"9:16": {
		Ratio:       "9:16",
		BaseWidth:   1024,
		BaseHeight:  1536,
		FinalWidth:  1024,
		FinalHeight: 1824,
		Axis:        AxisVertical,
	},
}

// Resolve returns the configuration for one of the supported aspect ratios.
// An unknown ratio is rejected up front, before any API call is made.
func Resolve(ratio string) (AspectConfig, error) {
	cfg, ok := aspects[ratio]
	if !ok {
		return AspectConfig{}, fmt.Errorf("unsupported aspect ratio %q (supported: %v)", ratio, Ratios())
	}
	return cfg, nil
}

// Ratios lists the supported aspect ratio selectors.
func Ratios() []string {
	out := make([]string, 0, len(aspects))
	for key := range aspects {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
