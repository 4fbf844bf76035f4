package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/inamate/infomap/internal/colors"
	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

// PreviewOptions control RenderPreview.
type PreviewOptions struct {
	// Width of the output in pixels; the background width when zero.
	Width int
	// ShowAll draws hover-gated areas as if every one were revealed.
	ShowAll bool
}

// RenderPreview rasterizes doc as it appears when the exported page loads.
// Images that cannot be read are drawn as grey placeholders.
func RenderPreview(doc *document.Project, imagesDir string, opts PreviewOptions) (image.Image, error) {
	bw, bh := doc.Background.Width, doc.Background.Height
	if bw <= 0 || bh <= 0 {
		return nil, fmt.Errorf("render preview: empty background %dx%d", bw, bh)
	}
	width := opts.Width
	if width <= 0 {
		width = bw
	}
	scale := float64(width) / float64(bw)
	height := max(1, int(float64(bh)*scale+0.5))

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	faces := make(map[int]font.Face)
	faceFor := func(size int) font.Face {
		if f, ok := faces[size]; ok {
			return f
		}
		f := truetype.NewFace(ttf, &truetype.Options{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
		faces[size] = f
		return f
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(parseColor(doc.Background.Color, 1))
	dc.Clear()
	dc.Scale(scale, scale)

	for _, img := range sortedByZ(doc.Images, func(c document.ImageConfig) int { return c.ZIndex }) {
		drawImage(dc, img, imagesDir, scale)
	}

	hidden := func(a *document.AreaConfig) bool { return !opts.ShowAll && a.HiddenAtLoad() }
	for _, c := range sortedByZ(doc.Connections, func(c document.ConnectionConfig) int { return c.ZIndex }) {
		src, dst := doc.Area(c.Source), doc.Area(c.Destination)
		if src == nil || dst == nil || hidden(src) || hidden(dst) {
			continue
		}
		line := style.ResolveAll(style.ForConnection(&c), doc.LineStyle(c.LineStyleRef), doc.Defaults)
		hex, _ := line[style.LineColor].(string)
		thickness, _ := line[style.Thickness].(float64)
		opacity, _ := line[style.Opacity].(float64)

		p1, p2 := geom.ConnectorEndpoints(AreaShape(src), AreaShape(dst))
		dc.SetColor(parseColor(hex, opacity))
		dc.SetLineWidth(thickness)
		dc.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
		dc.Stroke()
	}

	for _, a := range sortedByZ(doc.InfoAreas, func(c document.AreaConfig) int { return c.ZIndex }) {
		if hidden(&a) {
			continue
		}
		drawArea(dc, doc, a, faceFor)
	}
	return dc.Image(), nil
}

// WritePreviewPNG renders the preview and encodes it as PNG.
func WritePreviewPNG(w io.Writer, doc *document.Project, imagesDir string, opts PreviewOptions) error {
	img, err := RenderPreview(doc, imagesDir, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func drawImage(dc *gg.Context, img document.ImageConfig, imagesDir string, scale float64) {
	w, h := img.DisplaySize()
	x, y := img.CenterX-w/2, img.CenterY-h/2

	src, err := gg.LoadImage(filepath.Join(imagesDir, filepath.Base(img.Path)))
	if err != nil {
		slog.Debug("preview placeholder", "path", img.Path, "error", err)
		dc.SetRGB(0.8, 0.8, 0.8)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
		return
	}

	// Scale to output pixels up front so the context transform is a plain
	// translation for the bitmap.
	pw, ph := max(1, int(w*scale+0.5)), max(1, int(h*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	dc.Push()
	dc.Identity()
	dc.DrawImage(dst, int(x*scale+0.5), int(y*scale+0.5))
	dc.Pop()
}

func drawArea(dc *gg.Context, doc *document.Project, a document.AreaConfig, faceFor func(int) font.Face) {
	text := style.ResolveAll(style.ForArea(&a), doc.TextStyle(a.TextStyleRef), doc.Defaults)
	fontSize, _ := text[style.FontSize].(int)
	padding, _ := text[style.Padding].(int)
	fontColor, _ := text[style.FontColor].(string)
	hAlign, _ := text[style.HorizontalAlignment].(string)
	vAlign, _ := text[style.VerticalAlignment].(string)

	dc.Push()
	dc.RotateAbout(gg.Radians(a.Angle), a.CenterX, a.CenterY)
	x, y := a.CenterX-a.Width/2, a.CenterY-a.Height/2

	if a.Shape == document.ShapeEllipse {
		dc.DrawEllipse(a.CenterX, a.CenterY, a.Width/2, a.Height/2)
	} else {
		dc.DrawRectangle(x, y, a.Width, a.Height)
	}
	dc.SetColor(parseColor(a.FillColor, a.FillAlpha))
	dc.Fill()

	if body := plainText(a.Text); body != "" && fontSize > 0 {
		dc.SetFontFace(faceFor(fontSize))
		dc.SetColor(parseColor(fontColor, 1))
		p := float64(padding)
		inner := max(a.Width-2*p, 1)

		ax, tx := 0.0, x+p
		align := gg.AlignLeft
		switch hAlign {
		case document.AlignCenter:
			ax, tx, align = 0.5, a.CenterX, gg.AlignCenter
		case document.AlignRight:
			ax, tx, align = 1, x+a.Width-p, gg.AlignRight
		}
		ay, ty := 0.0, y+p
		switch vAlign {
		case document.AlignCenter:
			ay, ty = 0.5, a.CenterY
		case document.AlignBottom:
			ay, ty = 1, y+a.Height-p
		}
		dc.DrawStringWrapped(body, tx, ty, ax, ay, inner, 1.3, align)
	}
	dc.Pop()
}

// plainText drops the most common markdown markers for raster output.
func plainText(md string) string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(md), "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimLeft(l, "#>")
		l = strings.TrimPrefix(strings.TrimSpace(l), "- ")
		l = strings.NewReplacer("**", "", "__", "", "`", "").Replace(l)
		lines = append(lines, strings.TrimSpace(l))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func parseColor(hex string, alpha float64) color.Color {
	r, g, b, err := colors.ParseHex(hex)
	if err != nil {
		r, g, b = 0, 0, 0
	}
	a := colors.ClampAlpha(alpha)
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}
