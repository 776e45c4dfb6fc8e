package present

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
)

// ChartConfig holds rendering parameters for the inline SVG charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	GridColor    string
	TextColor    string
	FontSize     int
}

// DefaultChartConfig returns the trend chart layout used by the page.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        760,
		Height:       320,
		MarginTop:    20,
		MarginRight:  120,
		MarginBottom: 40,
		MarginLeft:   50,
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

func (c ChartConfig) plotArea() (x, y, w, h float64) {
	return float64(c.MarginLeft), float64(c.MarginTop),
		float64(c.Width - c.MarginLeft - c.MarginRight),
		float64(c.Height - c.MarginTop - c.MarginBottom)
}

var svgColors = map[string]string{
	"red":   "#d62728",
	"green": "#2ca02c",
}

func fill(name string) string {
	if c, ok := svgColors[name]; ok {
		return c
	}
	return "#1f77b4"
}

// GaugeSVG draws g as a half-dial. The band below the threshold is red and
// the band above it green; the needle points at the value.
func GaugeSVG(g Gauge) string {
	const (
		w, h   = 300, 190
		cx, cy = 150.0, 150.0
		r      = 110.0
		stroke = 26
	)
	lo, hi := g.Range[0], g.Range[1]
	if hi <= lo {
		lo, hi = 0, 100
	}
	frac := func(v float64) float64 {
		return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
	}
	point := func(f float64) (float64, float64) {
		theta := math.Pi * (1 - f)
		return cx + r*math.Cos(theta), cy - r*math.Sin(theta)
	}
	arc := func(from, to float64, color string) string {
		if to <= from {
			return ""
		}
		x1, y1 := point(from)
		x2, y2 := point(to)
		return fmt.Sprintf(`<path d="M %.2f %.2f A %.0f %.0f 0 0 1 %.2f %.2f" fill="none" stroke="%s" stroke-width="%d"/>`,
			x1, y1, r, r, x2, y2, fill(color), stroke)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" role="img" aria-label="%s">`,
		w, h, w, h, html.EscapeString(g.Title))

	th := frac(g.Threshold)
	sb.WriteString(arc(0, th, "red"))
	sb.WriteString(arc(th, 1, "green"))

	nx, ny := point(frac(g.Value))
	fmt.Fprintf(&sb, `<line x1="%.0f" y1="%.0f" x2="%.2f" y2="%.2f" stroke="#333" stroke-width="3"/>`, cx, cy, nx, ny)
	fmt.Fprintf(&sb, `<circle cx="%.0f" cy="%.0f" r="6" fill="#333"/>`, cx, cy)

	valColor := fill("green")
	if g.Below() {
		valColor = fill("red")
	}
	fmt.Fprintf(&sb, `<text x="%.0f" y="%d" font-size="26" font-weight="bold" text-anchor="middle" fill="%s">%.1f%%</text>`,
		cx, h-8, valColor, g.Value)
	fmt.Fprintf(&sb, `<text x="%.0f" y="%.0f" font-size="11" text-anchor="middle" fill="#666">%s</text>`, cx-r, cy+16, trimPct(lo))
	fmt.Fprintf(&sb, `<text x="%.0f" y="%.0f" font-size="11" text-anchor="middle" fill="#666">%s</text>`, cx+r, cy+16, trimPct(hi))
	sb.WriteString(`</svg>`)
	return sb.String()
}

// TrendSVG draws one polyline per series over a shared date axis. The y
// axis shows fractions as whole percents.
func TrendSVG(t Trend, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	px, py, pw, ph := cfg.plotArea()

	var first, last time.Time
	ymax := 1.0
	for _, s := range t.Series {
		for _, p := range s.Points {
			d, err := time.Parse(dataset.DateLayout, p.Date)
			if err != nil {
				continue
			}
			if first.IsZero() || d.Before(first) {
				first = d
			}
			if d.After(last) {
				last = d
			}
			ymax = math.Max(ymax, p.Value)
		}
	}
	if t.ReferenceLine != nil {
		ymax = math.Max(ymax, *t.ReferenceLine)
	}
	span := last.Sub(first)

	xOf := func(date string) float64 {
		d, _ := time.Parse(dataset.DateLayout, date)
		if span <= 0 {
			return px + pw/2
		}
		return px + pw*float64(d.Sub(first))/float64(span)
	}
	yOf := func(v float64) float64 {
		return py + ph - ph*v/ymax
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" role="img" aria-label="%% Condensate trend">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)

	ticks := int(math.Ceil(ymax / 0.25))
	for i := 0; i <= ticks; i++ {
		v := float64(i) * 0.25
		if v > ymax {
			v = ymax
		}
		y := yOf(v)
		fmt.Fprintf(&sb, `<line x1="%.0f" y1="%.1f" x2="%.0f" y2="%.1f" stroke="%s"/>`, px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%.0f" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, y+4, cfg.FontSize, cfg.TextColor, trimPct(v*100))
	}

	if !first.IsZero() {
		fmt.Fprintf(&sb, `<text x="%.0f" y="%.0f" font-size="%d" fill="%s" text-anchor="start">%s</text>`,
			px, py+ph+18, cfg.FontSize, cfg.TextColor, first.Format(dataset.DateLayout))
		if span > 0 {
			fmt.Fprintf(&sb, `<text x="%.0f" y="%.0f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
				px+pw, py+ph+18, cfg.FontSize, cfg.TextColor, last.Format(dataset.DateLayout))
		}
	}

	if t.ReferenceLine != nil {
		y := yOf(*t.ReferenceLine)
		fmt.Fprintf(&sb, `<line x1="%.0f" y1="%.1f" x2="%.0f" y2="%.1f" stroke="#555" stroke-dasharray="6,4"/>`, px, y, px+pw, y)
		fmt.Fprintf(&sb, `<text x="%.0f" y="%.1f" font-size="%d" fill="#555">avg target %s</text>`,
			px+pw+4, y+4, cfg.FontSize, trimPct(*t.ReferenceLine*100))
	}

	for i, s := range t.Series {
		color := fill(s.Color)
		pts := make([]string, 0, len(s.Points))
		for _, p := range s.Points {
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", xOf(p.Date), yOf(p.Value)))
		}
		fmt.Fprintf(&sb, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(pts, " "), color)
		for _, p := range s.Points {
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"><title>%s %s</title></circle>`,
				xOf(p.Date), yOf(p.Value), color, p.Date, trimPct(p.Value*100))
		}

		ly := py + 14 + float64(i)*18
		fmt.Fprintf(&sb, `<rect x="%.0f" y="%.0f" width="12" height="12" fill="%s"/>`, px+pw+8, ly-10, color)
		fmt.Fprintf(&sb, `<text x="%.0f" y="%.0f" font-size="%d" fill="%s">%s</text>`,
			px+pw+24, ly, cfg.FontSize, cfg.TextColor, html.EscapeString(s.Name))
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

// trimPct formats a percent value with no decimals.
func trimPct(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}
