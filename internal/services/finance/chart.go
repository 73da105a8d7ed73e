package finance

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cmorneau/maple/internal/models"
)

// AllocationChartPNG renders a bar chart of holding values. Returns
// ErrEmptyPortfolio when there is nothing to draw.
func (s *Service) AllocationChartPNG(ctx context.Context, userID string) ([]byte, error) {
	holdings, _, err := s.Portfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, ErrEmptyPortfolio
	}
	return renderAllocationChart(holdings)
}

func renderAllocationChart(holdings []models.Holding) ([]byte, error) {
	bars := make([]chart.Value, len(holdings))
	for i, h := range holdings {
		bars[i] = chart.Value{
			Label: h.Symbol,
			Value: h.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2563eb"), // blue-600
				StrokeColor: drawing.ColorFromHex("1e40af"), // blue-800
				StrokeWidth: 1,
			},
		}
	}

	graph := chart.BarChart{
		Title:    "Portfolio Allocation",
		Width:    900,
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
