package progress

import (
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/umputun/formprobe/pkg/config"
	"github.com/umputun/formprobe/pkg/status"
)

// Colors holds the console colors for every stage plus the shared warn/error/timestamp/info ones.
type Colors struct {
	stages    map[status.Stage]*color.Color
	warn      *color.Color
	err       *color.Color
	timestamp *color.Color
	info      *color.Color
}

// NewColors builds Colors from "r,g,b" strings. missing or malformed entries fall back to no color.
func NewColors(cfg config.ColorConfig) *Colors {
	return &Colors{
		stages: map[status.Stage]*color.Color{
			status.StageSetup:    parseRGB(cfg.Setup),
			status.StageLoad:     parseRGB(cfg.Load),
			status.StageNavigate: parseRGB(cfg.Navigate),
			status.StageSuggest:  parseRGB(cfg.Suggest),
			status.StageList:     parseRGB(cfg.List),
			status.StageSummary:  parseRGB(cfg.Summary),
		},
		warn:      parseRGB(cfg.Warn),
		err:       parseRGB(cfg.Error),
		timestamp: parseRGB(cfg.Timestamp),
		info:      parseRGB(cfg.Info),
	}
}

// ForStage returns the color for a stage, plain for unknown ones.
func (c *Colors) ForStage(s status.Stage) *color.Color {
	if col, ok := c.stages[s]; ok {
		return col
	}
	return color.New()
}

// Warn returns the warning color.
func (c *Colors) Warn() *color.Color { return c.warn }

// Error returns the error color.
func (c *Colors) Error() *color.Color { return c.err }

// Timestamp returns the timestamp color.
func (c *Colors) Timestamp() *color.Color { return c.timestamp }

// Info returns the informational color used for startup and summary lines.
func (c *Colors) Info() *color.Color { return c.info }

// parseRGB converts "r,g,b" into a 24-bit foreground color.
func parseRGB(s string) *color.Color {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.New()
	}
	var rgb [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return color.New()
		}
		rgb[i] = v
	}
	return color.RGB(rgb[0], rgb[1], rgb[2])
}
