// Package report renders a training run as a standalone HTML page with
// interactive charts.
package report

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/defectlab/defectscan/internal/model"
	"github.com/defectlab/defectscan/schema"
)

// Chart palette for clean versus defective series.
const (
	colorClean     = "#91cc75"
	colorDefective = "#ee6666"
)

const pieRadius = "60%"

// WriteTrainingReport renders the trained forest, its holdout evaluation and
// the dataset shape into a single HTML file.
func WriteTrainingReport(path string, result *model.TrainResult, records []schema.TrainingRecord) error {
	if result == nil || result.Forest == nil {
		return errors.New("no training result to report")
	}

	page := components.NewPage()
	page.PageTitle = "defectscan training report"
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		evaluationChart(result.Eval),
		featureUsageChart(result.Forest),
		classBalanceChart(records),
		featureSummaryChart(records),
	)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := page.Render(file); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// evaluationChart plots per-class precision, recall and F1 from the holdout
// split.
func evaluationChart(eval schema.Evaluation) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Holdout evaluation",
			Subtitle: fmt.Sprintf("Accuracy %.3f on %d held-out rows", eval.Accuracy, eval.TestRows),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	bar.SetXAxis([]string{"Precision", "Recall", "F1"})
	for label, m := range eval.PerClass {
		color := colorClean
		if label == schema.LabelDefective {
			color = colorDefective
		}
		bar.AddSeries(schema.LabelName(label), []opts.BarData{
			{Value: m.Precision},
			{Value: m.Recall},
			{Value: m.F1},
		}, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	}
	return bar
}

// featureUsageChart plots the share of split nodes testing each feature, a
// cheap importance proxy.
func featureUsageChart(forest *model.Forest) *charts.Bar {
	usage := forest.FeatureUsage()

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Feature usage",
			Subtitle: "Share of split nodes testing each feature",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	data := make([]opts.BarData, len(usage))
	for i, share := range usage {
		data[i] = opts.BarData{Value: share}
	}
	bar.SetXAxis(schema.FeatureColumns).AddSeries("Split share", data)
	return bar
}

// classBalanceChart plots the label distribution of the training data.
func classBalanceChart(records []schema.TrainingRecord) *charts.Pie {
	var counts [2]int
	for _, r := range records {
		if r.Label == schema.LabelDefective {
			counts[schema.LabelDefective]++
		} else {
			counts[schema.LabelClean]++
		}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Class balance",
			Subtitle: fmt.Sprintf("%d labeled rows", len(records)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	pie.AddSeries("Classes", []opts.PieData{
		{Name: schema.LabelName(schema.LabelClean), Value: counts[schema.LabelClean], ItemStyle: &opts.ItemStyle{Color: colorClean}},
		{Name: schema.LabelName(schema.LabelDefective), Value: counts[schema.LabelDefective], ItemStyle: &opts.ItemStyle{Color: colorDefective}},
	}).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: pieRadius}),
	)
	return pie
}

// featureSummaryChart plots per-feature mean and standard deviation across
// the training data.
func featureSummaryChart(records []schema.TrainingRecord) *charts.Bar {
	means, stddevs := summarizeFeatures(records)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Feature distributions",
			Subtitle: "Mean and standard deviation per feature",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	meanData := make([]opts.BarData, schema.FeatureCount)
	stdData := make([]opts.BarData, schema.FeatureCount)
	for i := range schema.FeatureCount {
		meanData[i] = opts.BarData{Value: means[i]}
		stdData[i] = opts.BarData{Value: stddevs[i]}
	}
	bar.SetXAxis(schema.FeatureColumns).
		AddSeries("Mean", meanData).
		AddSeries("Std dev", stdData)
	return bar
}

// summarizeFeatures computes column-wise mean and standard deviation.
// Datasets too small to have a spread report zero deviation.
func summarizeFeatures(records []schema.TrainingRecord) (means, stddevs []float64) {
	means = make([]float64, schema.FeatureCount)
	stddevs = make([]float64, schema.FeatureCount)
	if len(records) == 0 {
		return means, stddevs
	}

	column := make([]float64, len(records))
	for i := range schema.FeatureCount {
		for j, r := range records {
			column[j] = r.Features[i]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if math.IsNaN(std) {
			std = 0
		}
		means[i], stddevs[i] = mean, std
	}
	return means, stddevs
}
