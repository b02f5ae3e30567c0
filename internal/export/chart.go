package export

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/courtside/tracker/internal/game"
)

// ChartConfig holds configuration for the score-progression chart.
type ChartConfig struct {
	Title        string
	TeamName     string
	OpponentName string
	Width        string
	Height       string
	Theme        string
	Smooth       bool
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:        "Score Progression",
		TeamName:     "Home",
		OpponentName: "Opponent",
		Width:        "900px",
		Height:       "500px",
		Theme:        "light",
		Smooth:       true,
	}
}

// scorePoint is one scoring event on the chart's timeline.
type scorePoint struct {
	label    string
	home     int
	opponent int
}

// RenderScoreChart renders an interactive HTML line chart of both teams'
// running scores over the game's scoring events.
func RenderScoreChart(events []*game.GameEvent, config ChartConfig, outputPath string) error {
	points := scoreProgression(events)
	if len(points) == 0 {
		return fmt.Errorf("no scoring events to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: fmt.Sprintf("%s vs %s", config.TeamName, config.OpponentName),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)

	xLabels := make([]string, len(points))
	homeData := make([]opts.LineData, len(points))
	oppData := make([]opts.LineData, len(points))
	for i, p := range points {
		xLabels[i] = p.label
		homeData[i] = opts.LineData{Value: p.home}
		oppData[i] = opts.LineData{Value: p.opponent}
	}

	line.SetXAxis(xLabels).
		AddSeries(config.TeamName, homeData).
		AddSeries(config.OpponentName, oppData).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(config.Smooth),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// scoreProgression folds the chronological log into running scores, one
// point per scoring event, labeled by quarter and game-clock offset.
func scoreProgression(events []*game.GameEvent) []scorePoint {
	var points []scorePoint
	home, opp := 0, 0
	for _, e := range events {
		if e.Deleted || !e.Type.IsScore() {
			continue
		}
		value := e.Value
		if value == 0 {
			value = e.Type.PointValue()
		}
		if e.Actor.Side == game.SideHome {
			home += value
		} else {
			opp += value
		}
		points = append(points, scorePoint{
			label:    fmt.Sprintf("Q%d %d:%02d", e.Quarter, e.GameTimeOffset/60, e.GameTimeOffset%60),
			home:     home,
			opponent: opp,
		})
	}
	return points
}
