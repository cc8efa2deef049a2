package gantt

import (
	"fmt"
	"io"
	"strings"

	"github.com/zulandar/chargeyard/internal/config"
)

const (
	titleHeight  = 56
	legendHeight = 40
	fontFamily   = "Helvetica, Arial, sans-serif"
	gridColor    = "#e5e7eb"
	textColor    = "#1f2937"
	mutedColor   = "#6b7280"
)

// RenderSVG writes c as a standalone SVG image sized by opts. Month header
// cells are as wide as their flex weight; milestones are diamonds.
func RenderSVG(w io.Writer, c *Chart, opts config.GanttConfig) error {
	opts = withDefaults(opts)
	timelineW := float64(opts.Width - opts.SidebarWidth)
	left := float64(opts.SidebarWidth)
	bodyTop := titleHeight + opts.HeaderHeight
	height := bodyTop + c.RowCount()*opts.RowHeight + legendHeight

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" font-family="%s">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, opts.Width, height, opts.Width, height, fontFamily))

	// Title block.
	svg.WriteString(fmt.Sprintf(`<text x="8" y="24" font-size="20" font-weight="bold" fill="%s">%s</text>`+"\n", textColor, escapeXML(c.Title)))
	svg.WriteString(fmt.Sprintf(`<text x="8" y="44" font-size="12" fill="%s">%s</text>`+"\n", mutedColor, escapeXML(c.Client)))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="44" font-size="11" font-weight="bold" text-anchor="end" fill="%s">GANTT SCHEDULE</text>`+"\n", opts.Width-8, textColor))

	// Month header.
	headerY := titleHeight
	svg.WriteString(fmt.Sprintf(`<text x="8" y="%d" font-size="11" font-weight="bold" fill="%s">PHASE / TASK</text>`+"\n",
		headerY+opts.HeaderHeight/2+4, textColor))
	x := left
	for _, m := range c.Months {
		cellW := m.Flex * timelineW
		svg.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%d" x2="%.2f" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
			x, headerY, x, height-legendHeight, gridColor))
		svg.WriteString(fmt.Sprintf(`<text x="%.2f" y="%d" font-size="11" font-weight="bold" text-anchor="middle" fill="%s">%s</text>`+"\n",
			x+cellW/2, headerY+opts.HeaderHeight/2+4, textColor, escapeXML(m.Label)))
		x += cellW
	}
	svg.WriteString(fmt.Sprintf(`<line x1="0" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
		bodyTop, opts.Width, bodyTop, gridColor))

	// Phase groups and task rows.
	y := bodyTop
	for _, g := range c.Groups {
		color := safeColor(g.Phase.Color)
		svg.WriteString(fmt.Sprintf(`<rect x="0" y="%d" width="5" height="%d" fill="%s"/>`+"\n", y, opts.RowHeight, color))
		svg.WriteString(fmt.Sprintf(`<text x="12" y="%d" font-size="12" font-weight="bold" fill="%s">%s</text>`+"\n",
			y+opts.RowHeight/2+4, textColor, escapeXML(strings.ToUpper(g.Phase.Name))))
		y += opts.RowHeight

		for _, r := range g.Rows {
			mid := y + opts.RowHeight/2
			svg.WriteString(fmt.Sprintf(`<text x="16" y="%d" font-size="11" fill="%s">%s</text>`+"\n", mid+4, textColor, escapeXML(r.Task.Name)))
			svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="9" text-anchor="end" fill="%s">%s</text>`+"\n",
				opts.SidebarWidth-6, mid+3, mutedColor, escapeXML(r.Dates)))

			bx := left + r.Bar.Left/100*timelineW
			if r.Milestone {
				drawMilestone(&svg, bx+float64(opts.MilestoneSize)/2, float64(mid), float64(opts.MilestoneSize), color)
			} else {
				// A task ending before it starts still gets a sliver.
				bw := max(r.Bar.Width/100*timelineW, 1)
				barH := opts.RowHeight * 2 / 3
				svg.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%d" width="%.2f" height="%d" rx="3" fill="%s"><title>%s</title></rect>`+"\n",
					bx, mid-barH/2, bw, barH, color, escapeXML(r.Task.Name)))
			}
			y += opts.RowHeight
		}
	}

	// Legend.
	lx := 8
	ly := y + legendHeight/2
	for _, ph := range c.Legend {
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="12" rx="2" fill="%s"/>`+"\n", lx, ly-8, safeColor(ph.Color)))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="11" fill="%s">%s</text>`+"\n", lx+18, ly+2, textColor, escapeXML(ph.Name)))
		lx += 18 + estimateTextWidth(ph.Name, 11) + 24
	}

	svg.WriteString("</svg>\n")
	if _, err := io.WriteString(w, svg.String()); err != nil {
		return fmt.Errorf("gantt: write svg: %w", err)
	}
	return nil
}

func drawMilestone(svg *strings.Builder, cx, cy, size float64, color string) {
	h := size / 2
	svg.WriteString(fmt.Sprintf(`<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s"/>`+"\n",
		cx, cy-h, cx+h, cy, cx, cy+h, cx-h, cy, color))
}

func withDefaults(o config.GanttConfig) config.GanttConfig {
	if o.Width == 0 {
		o.Width = 1200
	}
	if o.SidebarWidth == 0 || o.SidebarWidth >= o.Width {
		o.SidebarWidth = o.Width / 4
	}
	if o.RowHeight == 0 {
		o.RowHeight = 28
	}
	if o.HeaderHeight == 0 {
		o.HeaderHeight = 32
	}
	if o.MilestoneSize == 0 {
		o.MilestoneSize = 14
	}
	return o
}

// estimateTextWidth approximates rendered width for legend spacing.
func estimateTextWidth(text string, fontSize int) int {
	return len(text) * fontSize * 6 / 10
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlReplacer.Replace(s)
}
