package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named sequence of values drawn on a shared scale.
type Series struct {
	Name   string
	Values []float64
	// Dotted draws the series as a sparse guide line, e.g. a threshold.
	Dotted bool
}

// PlotOptions controls plot geometry. Zero values pick defaults.
type PlotOptions struct {
	Width  int
	Height int
	// Color forces ANSI colors even when w is not a terminal.
	Color bool
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	dottedPeriod        = 4
)

var seriesColors = []string{
	"\x1b[36m", // cyan
	"\x1b[33m", // yellow
	"\x1b[35m", // magenta
	"\x1b[32m", // green
}

// PlotSeries draws every series as a braille line plot. Unlike a per-series
// normalized chart, all series share one value axis so a threshold line sits
// at its real height next to the staircase track.
func PlotSeries(w io.Writer, title string, series []Series, opts PlotOptions) error {
	series = nonEmpty(series)
	if len(series) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}

	lo, hi := sharedRange(series)
	labels := axisLabels(lo, hi, height)
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, runewidth.StringWidth(l))
	}

	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), labelWidth)
	}
	width = max(width, minPlotWidth)

	layers := make([][][]uint8, len(series))
	for i, s := range series {
		layers[i] = rasterize(resampleStep(s.Values, width), lo, hi, width, height, s.Dotted)
	}

	useColor := shouldUseColor(w, opts.Color)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(labels[y], labelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, layer := composeCell(layers, x, y)
			ch := rune(0x2800 + int(mask))
			if useColor && layer >= 0 {
				row.WriteString(seriesColors[layer%len(seriesColors)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, legend(series, useColor))
	return err
}

// PlotWidthFor returns the number of plot columns that fit next to an axis
// label of labelWidth cells.
func PlotWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-labelWidth-runewidth.StringWidth(axisSeparator), minPlotWidth)
}

func nonEmpty(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func sharedRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		l, h := minMax(s.Values)
		lo = math.Min(lo, l)
		hi = math.Max(hi, h)
	}
	if math.Abs(hi-lo) < 1e-9 {
		pad := math.Max(math.Abs(lo)*0.1, 0.01)
		lo -= pad
		hi += pad
	}
	return lo, hi
}

func axisLabels(lo, hi float64, height int) []string {
	labels := make([]string, height)
	labels[0] = formatValue(hi)
	if height > 1 {
		labels[height-1] = formatValue(lo)
	}
	if height > 2 {
		labels[height/2] = formatValue(hi - (hi-lo)*float64(height/2)/float64(height-1))
	}
	return labels
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.3g", v)
}

// rasterize draws values into a height x width grid of braille cells. Each
// cell holds a 2x4 dot matrix.
func rasterize(values []float64, lo, hi float64, width, height int, dotted bool) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	dots := height * 4
	prevX, prevY := -1, -1
	for x, v := range values {
		px, py := x*2, valueToDot(v, lo, hi, dots)
		plot := func(dx, dy int) {
			if !dotted || dx%dottedPeriod == 0 {
				setDot(cells, dx, dy)
			}
		}
		if prevX < 0 {
			plot(px, py)
		} else {
			drawLine(prevX, prevY, px, py, plot)
		}
		prevX, prevY = px, py
	}
	return cells
}

func valueToDot(v, lo, hi float64, dots int) int {
	if dots <= 1 {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return max(0, min(row, dots-1))
}

// resampleStep maps values onto width columns. Upsampling holds each value
// for its share of columns so staircase steps stay flat; downsampling averages.
func resampleStep(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	n := len(values)
	if n <= width {
		for i := range out {
			out[i] = values[i*n/width]
		}
		return out
	}
	for i := range out {
		start := i * n / width
		end := max((i+1)*n/width, start+1)
		out[i] = Mean(values[start:min(end, n)])
	}
	return out
}

func composeCell(layers [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	first := -1
	for i, cells := range layers {
		m := cells[y][x]
		if m == 0 {
			continue
		}
		if first < 0 {
			first = i
		}
		mask |= m
	}
	return mask, first
}

func legend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		style := "solid"
		if s.Dotted {
			style = "dotted"
		}
		label := fmt.Sprintf("⠉ %s (%s)", s.Name, style)
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// drawLine walks a Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// brailleDots maps a (column, row) position inside a cell to its dot bit.
var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleDots[x%2][y%4]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
