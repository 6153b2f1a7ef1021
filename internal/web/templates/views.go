// Package templates holds the HTML views of the dashboard.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// DashboardView is the data behind the dashboard page.
type DashboardView struct {
	Source    string
	LoadedAt  string
	Year      int
	HasYear   bool
	MinYear   int
	MaxYear   int
	Countries int

	PerCapita  []Bar
	Historical []Bar
	TopCapita  []Bar
	TopHistory []Bar
}

// Layout wraps body in the page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+`</title></head><body><main>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// Dashboard renders the summary page.
func Dashboard(v DashboardView) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h1>CO2 emissions</h1><p class="source">%s (loaded %s)</p>`,
			templ.EscapeString(v.Source), templ.EscapeString(v.LoadedAt))
		fmt.Fprintf(w, `<p class="summary">%d countries`, v.Countries)
		if v.HasYear {
			fmt.Fprintf(w, `, years %d to %d`, v.MinYear, v.MaxYear)
		}
		io.WriteString(w, `</p>`)

		if !v.HasYear {
			_, err := io.WriteString(w, `<p class="empty">No yearly data loaded.</p>`)
			return err
		}

		year := strconv.Itoa(v.Year)
		for _, t := range []struct {
			title string
			bars  []Bar
		}{
			{"Per-capita emission by continent, " + year, v.PerCapita},
			{"Historical emission by continent, " + year, v.Historical},
			{"Top per-capita emitters, " + year, v.TopCapita},
			{"Top historical emitters, " + year, v.TopHistory},
		} {
			if err := BarTable(t.title, t.bars).Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
	return Layout("CO2 emissions", body)
}

// BarTable renders bars as a two-column table.
func BarTable(title string, bars []Bar) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<section><h2>%s</h2><table>`, templ.EscapeString(title))
		for _, b := range bars {
			fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(b.Label), strconv.FormatFloat(b.Value, 'f', 4, 64))
		}
		_, err := io.WriteString(w, `</table></section>`)
		return err
	})
}

// ErrorAlert renders an error message fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<div class="error" role="alert"><strong>%s</strong>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(w, ` <span>%s</span>`, templ.EscapeString(action))
		}
		_, err := fmt.Fprintf(w, ` <code>%s</code></div>`, templ.EscapeString(code))
		return err
	})
}
