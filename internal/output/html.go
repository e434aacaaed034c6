package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/nanofire/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Report           Report
	Bars             []Bar
	Fastest          string
	FastestNS        float64
	ThresholdSummary *ThresholdSummary
}

// Bar is one row of the ns/call bar chart.
type Bar struct {
	Name    string
	NS      float64
	Percent float64
}

// ThresholdSummary aggregates threshold outcomes for display.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []ThresholdRow
}

// ThresholdRow is one evaluated threshold in the report table.
type ThresholdRow struct {
	Threshold string
	Workload  string
	Metric    string
	Aggregate string
	Operator  string
	Expected  float64
	Actual    float64
	Pass      bool
}

// GenerateHTMLReport generates a standalone HTML report.
func GenerateHTMLReport(w io.Writer, report Report, thresholdResults []threshold.Result) error {
	// Prepare threshold summary
	var thresholdSummary *ThresholdSummary
	if len(thresholdResults) > 0 {
		thresholdSummary = &ThresholdSummary{
			Total:   len(thresholdResults),
			Results: make([]ThresholdRow, len(thresholdResults)),
		}
		for i, tr := range thresholdResults {
			thresholdSummary.Results[i] = ThresholdRow{
				Threshold: tr.Threshold.Raw,
				Workload:  tr.Workload,
				Metric:    tr.Threshold.Metric,
				Aggregate: tr.Threshold.Aggregate,
				Operator:  tr.Threshold.Operator,
				Expected:  tr.Threshold.Value,
				Actual:    tr.Actual,
				Pass:      tr.Pass,
			}
			if tr.Pass {
				thresholdSummary.Passed++
			} else {
				thresholdSummary.Failed++
			}
		}
	}

	// Prepare the ns/call bar chart, scaled against the slowest workload
	var maxNS float64
	for _, e := range report.Workloads {
		if e.NSPerCall > maxNS {
			maxNS = e.NSPerCall
		}
	}
	bars := make([]Bar, 0, len(report.Workloads))
	fastest := ""
	fastestNS := 0.0
	for _, e := range report.Workloads {
		percent := 0.0
		if maxNS > 0 {
			percent = e.NSPerCall / maxNS * 100
		}
		bars = append(bars, Bar{Name: e.Name, NS: e.NSPerCall, Percent: percent})
		if fastest == "" || e.NSPerCall < fastestNS {
			fastest = e.Name
			fastestNS = e.NSPerCall
		}
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Report:           report,
		Bars:             bars,
		Fastest:          fastest,
		FastestNS:        fastestNS,
		ThresholdSummary: thresholdSummary,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Nanofire Benchmark Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.warning {
            border-left-color: #f59e0b;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .bar-row {
            display: grid;
            grid-template-columns: 180px 1fr 140px;
            gap: 12px;
            align-items: center;
            margin-bottom: 10px;
        }
        .bar-label {
            font-weight: 600;
            text-align: right;
            overflow: hidden;
            text-overflow: ellipsis;
            white-space: nowrap;
        }
        .bar-track {
            background: #f1f3f5;
            border-radius: 4px;
            height: 22px;
        }
        .bar-fill {
            background: linear-gradient(90deg, #667eea, #764ba2);
            border-radius: 4px;
            height: 100%;
        }
        .bar-value {
            color: #4b5563;
            font-variant-numeric: tabular-nums;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>⚡ Nanofire Benchmark Report</h1>
            <div class="meta">Run: {{.Report.RunID}} | Generated: {{.GeneratedAt}} | Duration: {{formatDuration .Report.Duration}}</div>
            <div class="meta">Host: {{.Report.Host.Hostname}} ({{.Report.Host.OS}}/{{.Report.Host.Arch}}, {{.Report.Host.CPUs}} CPUs, {{.Report.Host.GoVersion}})</div>
        </header>

        <div class="content">
            <!-- Summary Cards -->
            <div class="grid">
                <div class="card">
                    <h3>Workloads</h3>
                    <div class="value">{{len .Report.Workloads}}</div>
                </div>
                <div class="card {{if .Report.CountersEnabled}}success{{else}}warning{{end}}">
                    <h3>Hardware Counters</h3>
                    <div class="value">{{if .Report.CountersEnabled}}On{{else}}Off{{end}}</div>
                    <div class="subvalue">{{if .Report.CountersEnabled}}perf events{{else}}elapsed time only{{end}}</div>
                </div>
                {{if .Fastest}}
                <div class="card success">
                    <h3>Fastest</h3>
                    <div class="value">{{.Fastest}}</div>
                    <div class="subvalue">{{formatFloat .FastestNS}} ns/call</div>
                </div>
                {{end}}
                <div class="card">
                    <h3>Duration</h3>
                    <div class="value">{{formatDuration .Report.Duration}}</div>
                </div>
            </div>

            <!-- ns/call Chart -->
            {{if .Bars}}
            <div class="section">
                <h2>ns/call by Workload</h2>
                {{range .Bars}}
                <div class="bar-row">
                    <div class="bar-label">{{.Name}}</div>
                    <div class="bar-track"><div class="bar-fill" style="width: {{printf "%.1f" .Percent}}%"></div></div>
                    <div class="bar-value">{{formatFloat .NS}} ns</div>
                </div>
                {{end}}
            </div>
            {{end}}

            <!-- Results Table -->
            <div class="section">
                <h2>Results</h2>
                {{if .Report.Workloads}}
                <table>
                    <thead>
                        <tr>
                            <th>Workload</th>
                            <th>Samples</th>
                            <th>Inner</th>
                            <th>ns/call</th>
                            <th>Best</th>
                            <th>Worst</th>
                            <th>P50</th>
                            <th>P90</th>
                            <th>P99</th>
                            {{if .Report.CountersEnabled}}
                            <th>Instr/call</th>
                            <th>IPC</th>
                            {{end}}
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Report.Workloads}}
                        <tr>
                            <td><strong>{{.Name}}</strong></td>
                            <td>{{.Samples}}</td>
                            <td>{{.InnerCount}}</td>
                            <td>{{formatFloat .NSPerCall}}</td>
                            <td>{{formatFloat .BestNS}}</td>
                            <td>{{formatFloat .WorstNS}}</td>
                            <td>{{formatFloat .P50NS}}</td>
                            <td>{{formatFloat .P90NS}}</td>
                            <td>{{formatFloat .P99NS}}</td>
                            {{if $.Report.CountersEnabled}}
                            <td>{{formatFloat .Instructions}}</td>
                            <td>{{formatFloat .IPC}}</td>
                            {{end}}
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{else}}
                <div class="no-data">No workloads completed</div>
                {{end}}
            </div>

            <!-- Thresholds -->
            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Workload</th>
                            <th>Metric</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold}}</td>
                            <td>{{.Workload}}</td>
                            <td>{{.Metric}} ({{.Aggregate}})</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
