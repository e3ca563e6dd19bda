package core

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	m "sharpe.service/models"
)

var (
	chartWidth  = 16 * vg.Inch
	chartHeight = 12 * vg.Inch
	barWidth    = vg.Points(80)
)

var barBlue = color.RGBA{B: 255, A: 255}

// RenderBarChart draws the ranked records as a vertical bar chart, one bar
// per instrument in rank order, and returns the encoded PNG.
func RenderBarChart(result *m.RankResult) ([]byte, error) {
	if result == nil || len(result.Records) == 0 {
		return nil, fmt.Errorf("refusing to render a chart with no ranked records")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d stocks measured by the Sharpe ratio.", len(result.Records))
	p.Title.Padding = vg.Points(20)
	p.Y.Label.Text = "Annualized Sharpe ratio"

	values := make(plotter.Values, len(result.Records))
	names := make([]string, len(result.Records))
	labelData := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(result.Records)),
		Labels: make([]string, len(result.Records)),
	}
	for i, record := range result.Records {
		values[i] = record.SharpeRatio
		names[i] = record.Symbol
		labelData.XYs[i] = plotter.XY{X: float64(i), Y: record.SharpeRatio}
		labelData.Labels[i] = strconv.FormatFloat(record.SharpeRatio, 'f', 2, 64)
	}

	bars, err := plotter.NewBarChart(values, barWidth)
	if err != nil {
		return nil, fmt.Errorf("error building bar chart: %w", err)
	}
	bars.Color = barBlue
	bars.LineStyle.Width = 0

	ratioLabels, err := plotter.NewLabels(labelData)
	if err != nil {
		return nil, fmt.Errorf("error building bar labels: %w", err)
	}
	for i := range ratioLabels.TextStyle {
		ratioLabels.TextStyle[i].XAlign = text.XCenter
		if values[i] >= 0 {
			// anchor at the label's bottom so the text sits above the bar
			ratioLabels.TextStyle[i].YAlign = text.YBottom
		} else {
			ratioLabels.TextStyle[i].YAlign = text.YTop
		}
	}

	p.Add(bars, ratioLabels)
	p.NominalX(names...)

	writer, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("error preparing png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("error encoding chart png: %w", err)
	}

	return buf.Bytes(), nil
}
