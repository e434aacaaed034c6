package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/nanofire/internal/suite"
)

// RunInfo holds run-level settings for the summary panel.
type RunInfo struct {
	RunID      string        // Identifier shared with the final report
	MinTime    time.Duration // Warm-up time floor
	MinRepeat  int           // Outer sample floor
	MaxRepeat  int           // Outer sample ceiling
	Counters   bool          // Hardware counters available
	ConfigFile string        // Path to config file if used
}

// StatusSource yields progress snapshots. *suite.Suite satisfies it.
type StatusSource interface {
	Status() suite.Status
}

// Dashboard renders a live terminal UI for benchmark progress.
type Dashboard struct {
	source       StatusSource
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	stopOnce     sync.Once
	mu           sync.Mutex

	// Widgets
	grid          *ui.Grid
	summaryPara   *widgets.Paragraph
	phasePara     *widgets.Paragraph
	statsPara     *widgets.Paragraph
	progressGauge *widgets.Gauge
	resultList    *widgets.List
	nsSparkle     *widgets.SparklineGroup
	startTime     time.Time
	info          RunInfo
}

// New creates a new Dashboard.
func New(source StatusSource, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		source:       source,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		startTime:    time.Now(),
		info:         info,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	// ns/call Sparkline
	sparkline := widgets.NewSparkline()
	sparkline.Title = "ns/call"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.nsSparkle = widgets.NewSparklineGroup(sparkline)
	d.nsSparkle.Title = "ns/call by Workload"
	d.nsSparkle.BorderStyle.Fg = ui.ColorCyan

	// Percentile Paragraph
	d.statsPara = widgets.NewParagraph()
	d.statsPara.Title = "Last Workload"
	d.statsPara.Text = "Awaiting first result"
	d.statsPara.BorderStyle.Fg = ui.ColorCyan

	// Progress Gauge
	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Suite Progress"
	d.progressGauge.Percent = 0
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	// Result List
	d.resultList = widgets.NewList()
	d.resultList.Title = "Completed Workloads"
	d.resultList.Rows = []string{"Awaiting data"}
	d.resultList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.resultList.BorderStyle.Fg = ui.ColorCyan

	// Summary Paragraph
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	// Phase Paragraph
	d.phasePara = widgets.NewParagraph()
	d.phasePara.Title = "Current Workload"
	d.phasePara.Text = "Waiting..."
	d.phasePara.TextStyle = ui.NewStyle(ui.ColorGreen)
	d.phasePara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.18,
			ui.NewCol(0.5, d.progressGauge),
			ui.NewCol(0.5, d.phasePara),
		),
		ui.NewRow(0.28,
			ui.NewCol(0.65, d.nsSparkle),
			ui.NewCol(0.35, d.statsPara),
		),
		ui.NewRow(0.38,
			ui.NewCol(1.0, d.resultList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal. Safe to call more
// than once.
func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
		ui.Close()
		// Give terminal time to restore
		time.Sleep(100 * time.Millisecond)
	})
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			// Check if context is done to avoid blocking
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the status source.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.source.Status()

	elapsed := st.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(d.startTime)
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Run: %s\n%s\nElapsed: %s | Completed: %d/%d",
		d.info.RunID,
		d.formatRunParams(),
		elapsed.Round(time.Second),
		st.Completed,
		st.Total,
	)

	d.progressGauge.Percent = progressPercent(st)
	d.progressGauge.Label = fmt.Sprintf("%d/%d workloads", st.Completed, st.Total)

	d.phasePara.Text = formatPhase(st)
	d.statsPara.Text = formatStats(st.Results)

	d.updateSparkline(st.Results)
	d.resultList.Rows = formatResultRows(st.Results, d.info.Counters)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// updateSparkline plots one point per completed workload.
func (d *Dashboard) updateSparkline(results []suite.Result) {
	series := nsSeries(results)
	if len(series) == 0 {
		return
	}
	if len(series) > 100 {
		series = series[len(series)-100:]
	}
	d.nsSparkle.Sparklines[0].Data = series
	d.nsSparkle.Title = fmt.Sprintf("ns/call by Workload | Last: %.1f", series[len(series)-1])
}

func nsSeries(results []suite.Result) []float64 {
	series := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Aggregate == nil {
			continue
		}
		series = append(series, r.Aggregate.ElapsedNS())
	}
	return series
}

func progressPercent(st suite.Status) int {
	if st.Total == 0 {
		return 0
	}
	percent := st.Completed * 100 / st.Total
	if percent > 100 {
		percent = 100
	}
	return percent
}

func formatPhase(st suite.Status) string {
	if st.Current == "" {
		if st.Total > 0 && st.Completed == st.Total {
			return "[All workloads complete](fg:green)"
		}
		return "Waiting..."
	}
	text := fmt.Sprintf("[%s](fg:cyan,mod:bold)\nPhase: %s", st.Current, st.Phase)
	if st.Samples > 0 {
		text += fmt.Sprintf("\nPlan:  %d samples x %d calls", st.Samples, st.InnerCount)
	}
	return text
}

func formatStats(results []suite.Result) string {
	if len(results) == 0 {
		return "Awaiting first result"
	}
	last := results[len(results)-1]
	agg := last.Aggregate
	if agg == nil {
		return "Awaiting first result"
	}
	return fmt.Sprintf(
		"%s\nBest:  %.1f ns\nP50:   %.1f ns\nP90:   %.1f ns\nP99:   %.1f ns\nWorst: %.1f ns",
		last.Name,
		agg.Best().ElapsedNS,
		agg.PercentileNS(50),
		agg.PercentileNS(90),
		agg.PercentileNS(99),
		agg.Worst().ElapsedNS,
	)
}

func formatResultRows(results []suite.Result, counters bool) []string {
	if len(results) == 0 {
		return []string{"[No workloads completed yet](fg:green)"}
	}
	rows := make([]string, 0, len(results))
	for _, r := range results {
		agg := r.Aggregate
		if agg == nil {
			continue
		}
		row := fmt.Sprintf("[%s](fg:cyan) | %10.1f ns/call | p99 %10.1f | %d x %d",
			r.Name,
			agg.ElapsedNS(),
			agg.PercentileNS(99),
			agg.Count(),
			agg.InnerCount(),
		)
		if counters {
			row += fmt.Sprintf(" | %8.0f instr | IPC %.2f", agg.Instructions(), agg.InstructionsPerCycle())
		}
		rows = append(rows, row)
	}
	return rows
}

// formatRunParams formats the run configuration parameters for display.
func (d *Dashboard) formatRunParams() string {
	var parts []string

	if d.info.MinTime > 0 {
		parts = append(parts, fmt.Sprintf("Min time: %s", d.info.MinTime))
	}

	if d.info.MinRepeat > 0 && d.info.MaxRepeat > 0 {
		parts = append(parts, fmt.Sprintf("Samples: %d-%d", d.info.MinRepeat, d.info.MaxRepeat))
	} else if d.info.MinRepeat > 0 {
		parts = append(parts, fmt.Sprintf("Samples: %d+", d.info.MinRepeat))
	}

	if d.info.Counters {
		parts = append(parts, "Counters: hardware")
	} else {
		parts = append(parts, "Counters: elapsed only")
	}

	if d.info.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.info.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
