package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/macula/internal/model"
)

// RenderResult prints a human-readable report for any finished session.
func RenderResult(w io.Writer, result model.Result, opts PlotOptions) error {
	p := &printer{w: w}
	switch r := result.(type) {
	case model.AmslerResult:
		renderAmsler(p, r)
	case model.PhpResult:
		renderStaircase(p, opts, staircaseReport{
			title:     "PHP",
			unit:      "offset",
			trials:    r.Trials,
			track:     r.Track,
			reversals: r.ReversalValues,
			threshold: r.Threshold,
			known:     r.Determined,
			reason:    r.StopReason,
		})
	case model.MChartResult:
		renderStaircase(p, opts, staircaseReport{
			title:     "M-Chart",
			unit:      "spacing",
			trials:    r.Trials,
			track:     r.Track,
			reversals: r.ReversalValues,
			threshold: r.Threshold,
			known:     r.Determined,
			reason:    r.StopReason,
		})
	case model.SdhResult:
		renderSdh(p, r)
	case model.CentralFieldResult:
		renderCentral(p, r)
	case model.ReadingResult:
		renderReading(p, r)
	default:
		return fmt.Errorf("render result: unsupported result %T", result)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) table(headers []string, rows [][]string, rightAlign map[int]bool) {
	for _, l := range formatTable(headers, rows, rightAlign) {
		p.line("%s", l)
	}
}

func renderAmsler(p *printer, r model.AmslerResult) {
	p.line("Amsler grid (%s eye)", r.EyeTested)
	p.line("Session: %s", r.SessionID)
	p.line("Duration: %.1fs", float64(r.DurationMillis)/1000)
	p.line("Fixation losses: %d", r.FixationLossCount)
	p.line("Reliability: %.2f", r.ReliabilityScore)
	if len(r.Marks) == 0 {
		p.line("No marks placed.")
		return
	}
	p.line("")
	rows := make([][]string, len(r.Marks))
	for i, m := range r.Marks {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.3f", m.Position.X),
			fmt.Sprintf("%.3f", m.Position.Y),
			string(m.Type),
		}
	}
	p.table([]string{"#", "X", "Y", "Type"}, rows, map[int]bool{0: true, 1: true, 2: true})
}

type staircaseReport struct {
	title     string
	unit      string
	trials    []model.TrialRecord
	track     []float64
	reversals []float64
	threshold float64
	known     bool
	reason    string
}

func renderStaircase(p *printer, opts PlotOptions, r staircaseReport) {
	p.line("%s staircase", r.title)
	p.line("Trials: %d", len(r.trials))
	p.line("Reversals: %d %s", len(r.reversals), formatValues(r.reversals))
	if r.reason != "" {
		p.line("Stopped: %s", r.reason)
	}
	if r.known {
		p.line("Threshold (%s): %.4f", r.unit, r.threshold)
	} else {
		p.line("Threshold (%s): undetermined", r.unit)
	}
	p.line("Track: %s", Sparkline(r.track))
	if p.err != nil || len(r.track) < 2 {
		return
	}
	p.line("")
	series := []Series{{Name: r.unit, Values: r.track}}
	if r.known {
		series = append(series, Series{Name: "threshold", Values: []float64{r.threshold, r.threshold}, Dotted: true})
	}
	p.err = PlotSeries(p.w, "", series, opts)
}

func renderSdh(p *printer, r model.SdhResult) {
	p.line("SDH")
	p.line("Correct: %d/%d", r.CorrectCount, r.TotalTrials)
	p.line("Score: %.0f%%", r.Score*100)
}

func renderCentral(p *printer, r model.CentralFieldResult) {
	p.line("Central field")
	p.line("Seen: %d/%d", r.SeenCount, len(r.Seen))
	for _, row := range r.Grid() {
		cells := make([]string, len(row))
		for i, seen := range row {
			cells[i] = "●"
			if !seen {
				cells[i] = "○"
			}
		}
		p.line("  %s", strings.Join(cells, " "))
	}
}

func renderReading(p *printer, r model.ReadingResult) {
	p.line("Reading")
	p.line("Sentences read: %d/%d", len(r.Attempts), r.Sentences)
	if len(r.Attempts) == 0 {
		return
	}
	rows := make([][]string, len(r.Attempts))
	for i, a := range r.Attempts {
		rows[i] = []string{
			strconv.Itoa(a.SentenceIndex + 1),
			strconv.Itoa(a.WordCount),
			fmt.Sprintf("%.2f", float64(a.DurationMillis)/1000),
			strconv.Itoa(a.WordsPerMinute),
		}
	}
	p.table([]string{"Sentence", "Words", "Seconds", "WPM"}, rows, map[int]bool{0: true, 1: true, 2: true, 3: true})
	p.line("Mean WPM: %.1f", r.MeanWPM)
}

func formatValues(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
