package gantt

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.New("gantt.html").Funcs(template.FuncMap{
	"pct":   func(f float64) template.CSS { return template.CSS(fmt.Sprintf("%.4f%%", f)) },
	"upper": strings.ToUpper,
	"css":   func(s string) template.CSS { return template.CSS(safeColor(s)) },
}).ParseFS(templatesFS, "templates/gantt.html"))

// RenderHTML writes c as a self-contained printable HTML page.
func RenderHTML(w io.Writer, c *Chart) error {
	if err := pageTmpl.Execute(w, c); err != nil {
		return fmt.Errorf("gantt: render html: %w", err)
	}
	return nil
}

// safeColor passes through #rgb / #rrggbb colors and replaces anything else
// with a neutral grey, since phase colors are user input.
func safeColor(s string) string {
	if (len(s) != 4 && len(s) != 7) || s[0] != '#' {
		return "#9ca3af"
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "#9ca3af"
		}
	}
	return s
}
