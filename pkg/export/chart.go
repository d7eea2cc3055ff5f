// Package export writes loaded domains out of the terminal: a popularity
// chart as SVG or PNG and markdown reports for tasks and domains.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/model"
)

// ChartOptions controls popularity chart export.
type ChartOptions struct {
	Path    string                   // Output path; format inferred from extension when Format empty
	Format  string                   // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title   string                   // Optional title rendered in the summary block
	Entries []loader.PopularityEntry // Bars, top first
	Stats   loader.Stats             // Domain summary for the header
}

// SaveChart renders a horizontal bar chart of dataset counts (SVG or PNG).
func SaveChart(opts ChartOptions) error {
	if len(opts.Entries) == 0 {
		return fmt.Errorf("no tasks to export")
	}

	format, path, err := resolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildChartLayout(opts)

	switch format {
	case "svg":
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		defer file.Close()
		return renderChartSVG(file, layout)
	default:
		return renderChartPNG(opts.Path, layout)
	}
}

func resolveFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}

// --- layout computation ----------------------------------------------------

type chartBar struct {
	Label string
	Count int
	Kind  model.Kind
	X, Y  float64
	W, H  float64
}

type chartLayout struct {
	Bars    []chartBar
	Width   int
	Height  int
	Header  float64
	LabelX  float64
	Title   string
	Summary []string
}

const (
	chartPadding  = 36.0
	chartHeader   = 120.0
	chartLabelW   = 280.0
	chartBarMaxW  = 460.0
	chartBarH     = 18.0
	chartRowGap   = 10.0
	chartLabelLen = 40
)

func buildChartLayout(opts ChartOptions) chartLayout {
	top := 0
	for _, e := range opts.Entries {
		if e.DatasetCount > top {
			top = e.DatasetCount
		}
	}

	bars := make([]chartBar, 0, len(opts.Entries))
	for i, e := range opts.Entries {
		w := 0.0
		if top > 0 {
			w = chartBarMaxW * float64(e.DatasetCount) / float64(top)
		}
		bars = append(bars, chartBar{
			Label: truncate(e.Name, chartLabelLen),
			Count: e.DatasetCount,
			Kind:  e.Kind,
			X:     chartPadding + chartLabelW,
			Y:     chartPadding + chartHeader + float64(i)*(chartBarH+chartRowGap),
			W:     w,
			H:     chartBarH,
		})
	}

	width := int(chartPadding*2 + chartLabelW + chartBarMaxW + 60)
	height := int(chartPadding*2 + chartHeader + float64(len(bars))*(chartBarH+chartRowGap))
	if height < 320 {
		height = 320
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Task Popularity"
		if opts.Stats.Domain != "" {
			title += ": " + opts.Stats.Domain
		}
	}

	return chartLayout{
		Bars:   bars,
		Width:  width,
		Height: height,
		Header: chartHeader,
		LabelX: chartPadding,
		Title:  title,
		Summary: []string{
			fmt.Sprintf("tasks: %d  (hierarchical %d, standalone %d)",
				opts.Stats.TotalTasks, opts.Stats.HierarchicalCount, opts.Stats.StandaloneCount),
			fmt.Sprintf("roots: %d  max depth: %d", opts.Stats.RootCount, opts.Stats.MaxDepth),
			fmt.Sprintf("showing top %d by dataset count", len(bars)),
		},
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorHier     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorSolo     = color.RGBA{0xe0, 0x9f, 0x3e, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func kindColor(k model.Kind) color.RGBA {
	if k == model.KindStandalone {
		return colorSolo
	}
	return colorHier
}

func renderChartPNG(path string, layout chartLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	for i, line := range layout.Summary {
		dc.DrawStringAnchored(line, 32, 64+float64(i)*20, 0, 0.5)
	}
	drawLegend(dc, layout)

	for _, b := range layout.Bars {
		mid := b.Y + b.H/2
		dc.SetColor(colorText)
		dc.DrawStringAnchored(b.Label, layout.LabelX, mid, 0, 0.5)
		dc.SetColor(kindColor(b.Kind))
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(fmt.Sprintf("%d", b.Count), b.X+b.W+8, mid, 0, 0.5)
	}

	return dc.SavePNG(path)
}

func drawLegend(dc *gg.Context, layout chartLayout) {
	boxW := 160.0
	boxH := 64.0
	x := float64(layout.Width) - boxW - 20
	y := 24.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+18, 0, 0.5)
	drawLegendRow(dc, x+12, y+36, colorHier, model.KindHierarchical.Label())
	drawLegendRow(dc, x+12, y+52, colorSolo, model.KindStandalone.Label())
}

func drawLegendRow(dc *gg.Context, x, y float64, c color.RGBA, label string) {
	dc.SetColor(c)
	dc.DrawRoundedRectangle(x, y-8, 14, 14, 3)
	dc.Fill()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(label, x+20, y, 0, 0.5)
}

func renderChartSVG(w io.Writer, layout chartLayout) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(32, 44, layout.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, line := range layout.Summary {
		canvas.Text(32, 64+i*20, line, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}

	lx := layout.Width - 180
	canvas.Roundrect(lx, 24, 160, 64, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(lx+12, 42, "Legend", fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, k := range []model.Kind{model.KindHierarchical, model.KindStandalone} {
		y := 60 + i*16
		canvas.Roundrect(lx+12, y-8, 14, 14, 3, 3, fmt.Sprintf("fill:%s", css(kindColor(k))))
		canvas.Text(lx+32, y+4, k.Label(), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}

	for _, b := range layout.Bars {
		y := int(b.Y)
		mid := int(b.Y + b.H/2)
		canvas.Text(int(layout.LabelX), mid+4, b.Label, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
		canvas.Rect(int(b.X), y, int(b.W), int(b.H), fmt.Sprintf("fill:%s", css(kindColor(b.Kind))))
		canvas.Text(int(b.X+b.W)+8, mid+4, fmt.Sprintf("%d", b.Count), fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
