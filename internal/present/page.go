package present

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"gauge": func(g *Gauge) template.HTML { return template.HTML(GaugeSVG(*g)) },
	"trend": func(t *Trend) template.HTML { return template.HTML(TrendSVG(*t, DefaultChartConfig())) },
	"ago":   humanize.Time,
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"has": func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	},
}).ParseFS(templateFS, "templates/*.html"))

// Choices are the selectable filter values offered by the page and the
// options endpoint.
type Choices struct {
	MinDate  string   `json:"min_date,omitempty"`
	MaxDate  string   `json:"max_date,omitempty"`
	Boilers  []string `json:"boilers"`
	Statuses []string `json:"statuses"`
}

// BuildChoices derives the filter choices from the full loaded dataset.
func BuildChoices(ds *dataset.Dataset) Choices {
	c := Choices{
		Boilers:  ds.Boilers(),
		Statuses: make([]string, 0, len(dataset.Statuses)),
	}
	if first, last, ok := ds.DateRange(); ok {
		c.MinDate = first.Format(dataset.DateLayout)
		c.MaxDate = last.Format(dataset.DateLayout)
	}
	for _, s := range dataset.Statuses {
		c.Statuses = append(c.Statuses, string(s))
	}
	return c
}

// PageData is the input of the dashboard page template.
type PageData struct {
	Dashboard Dashboard
	Choices   Choices
	LoadedAt  time.Time
	Rows      int // rows in the loaded dataset before filtering
	Dropped   int
	ExportURL string
	ResetURL  string
}

// RenderPage writes the dashboard HTML page.
func RenderPage(w io.Writer, data PageData) error {
	if err := templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		return fmt.Errorf("present: render page: %w", err)
	}
	return nil
}

// RenderError writes the error page shown instead of the dashboard when a
// pass fails. No partial dashboard is rendered.
func RenderError(w io.Writer, title string, err error) error {
	data := struct {
		Title   string
		Message string
	}{Title: title, Message: err.Error()}
	if err := templates.ExecuteTemplate(w, "error.html", data); err != nil {
		return fmt.Errorf("present: render error page: %w", err)
	}
	return nil
}
