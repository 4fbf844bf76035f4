// Package export turns a project into a standalone interactive HTML page and
// into PNG previews.
package export

import (
	"cmp"
	"fmt"
	"html"
	"math"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/inamate/infomap/internal/colors"
	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

// ImagesFolder is the folder next to the exported page that holds images.
const ImagesFolder = "images"

// Options tune the generated page.
type Options struct {
	// Title of the page; the project name when empty.
	Title string
	// ImageBase is the URL prefix for image sources; ImagesFolder + "/"
	// when empty.
	ImageBase string
}

// RenderHTML generates the page for doc. It does not touch the filesystem.
func RenderHTML(doc *document.Project, opts Options) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("render html: no project")
	}
	title := opts.Title
	if title == "" {
		title = cmp.Or(doc.ProjectName, "Info map")
	}
	base := opts.ImageBase
	if base == "" {
		base = ImagesFolder + "/"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	fmt.Fprintf(&b, "<style>\n%s</style>\n</head>\n<body>\n", pageCSS)
	b.WriteString("<div id=\"toolbar\"><button id=\"toggle-info\" type=\"button\">Show all info</button></div>\n")
	fmt.Fprintf(&b, "<div id=\"canvas\" style=\"width:%dpx;height:%dpx;background-color:%s;\">\n",
		doc.Background.Width, doc.Background.Height, html.EscapeString(doc.Background.Color))

	for _, img := range sortedByZ(doc.Images, func(c document.ImageConfig) int { return c.ZIndex }) {
		writeImage(&b, img, base)
	}
	for _, c := range sortedByZ(doc.Connections, func(c document.ConnectionConfig) int { return c.ZIndex }) {
		writeConnection(&b, doc, c)
	}
	for _, a := range sortedByZ(doc.InfoAreas, func(c document.AreaConfig) int { return c.ZIndex }) {
		writeArea(&b, doc, a)
	}

	b.WriteString("</div>\n<script>\n")
	b.WriteString(pageScript)
	b.WriteString("</script>\n</body>\n</html>\n")
	return b.String(), nil
}

func sortedByZ[T any](items []T, z func(T) int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(z(a), z(b)) })
	return out
}

func writeImage(b *strings.Builder, img document.ImageConfig, base string) {
	w, h := img.DisplaySize()
	src := base + url.PathEscape(filepath.Base(img.Path))
	fmt.Fprintf(b, "<img class=\"map-image\" src=\"%s\" alt=\"\" style=\"left:%spx;top:%spx;width:%spx;height:%spx;z-index:%d;\">\n",
		html.EscapeString(src), num(img.CenterX-w/2), num(img.CenterY-h/2), num(w), num(h), img.ZIndex)
}

// AreaShape is the scene geometry of an area.
func AreaShape(a *document.AreaConfig) geom.Shape {
	return geom.Shape{
		Kind:   a.Shape,
		Center: geom.Pt(a.CenterX, a.CenterY),
		Width:  a.Width,
		Height: a.Height,
		Angle:  a.Angle,
	}
}

func writeArea(b *strings.Builder, doc *document.Project, a document.AreaConfig) {
	text := style.ResolveAll(style.ForArea(&a), doc.TextStyle(a.TextStyleRef), doc.Defaults)
	fontSize, _ := text[style.FontSize].(int)
	padding, _ := text[style.Padding].(int)
	fontColor, _ := text[style.FontColor].(string)
	hAlign, _ := text[style.HorizontalAlignment].(string)
	vAlign, _ := text[style.VerticalAlignment].(string)

	var css strings.Builder
	fmt.Fprintf(&css, "left:%spx;top:%spx;width:%spx;height:%spx;",
		num(a.CenterX-a.Width/2), num(a.CenterY-a.Height/2), num(a.Width), num(a.Height))
	fmt.Fprintf(&css, "transform:rotate(%sdeg);transform-origin:50%% 50%%;z-index:%d;", num(a.Angle), a.ZIndex)
	fmt.Fprintf(&css, "background-color:%s;", colors.CSSRGBA(a.FillColor, a.FillAlpha))
	if a.Shape == document.ShapeEllipse {
		css.WriteString("border-radius:50%;")
	}
	fmt.Fprintf(&css, "justify-content:%s;", flexAlign(vAlign))
	hidden := a.HiddenAtLoad()
	if hidden {
		css.WriteString("opacity:0;")
	}

	fmt.Fprintf(b, "<div class=\"hotspot\" data-id=\"%s\" data-shape=\"%s\" data-angle=\"%s\" data-show-on-hover=\"%t\" data-show-on-hover-connected=\"%t\" style=\"%s\">\n",
		html.EscapeString(a.ID), html.EscapeString(a.Shape), num(a.Angle), a.ShowOnHover, a.ShowOnHoverConnected, css.String())

	display := "block"
	if hidden {
		display = "none"
	}
	fmt.Fprintf(b, "<div class=\"info-text\" style=\"display:%s;color:%s;font-size:%dpx;padding:%dpx;text-align:%s;\">%s</div>\n",
		display, html.EscapeString(fontColor), fontSize, padding, html.EscapeString(hAlign), RenderMarkdown(a.Text, fontSize))
	b.WriteString("</div>\n")
}

func flexAlign(v string) string {
	switch v {
	case document.AlignCenter:
		return "center"
	case document.AlignBottom:
		return "flex-end"
	}
	return "flex-start"
}

func writeConnection(b *strings.Builder, doc *document.Project, c document.ConnectionConfig) {
	src, dst := doc.Area(c.Source), doc.Area(c.Destination)
	if src == nil || dst == nil {
		return
	}
	line := style.ResolveAll(style.ForConnection(&c), doc.LineStyle(c.LineStyleRef), doc.Defaults)
	color, _ := line[style.LineColor].(string)
	thickness, _ := line[style.Thickness].(float64)
	opacity, _ := line[style.Opacity].(float64)

	p1, p2 := geom.ConnectorEndpoints(AreaShape(src), AreaShape(dst))

	initial := num(opacity)
	if src.HiddenAtLoad() || dst.HiddenAtLoad() {
		initial = "0"
	}
	w, h := doc.Background.Width, doc.Background.Height
	fmt.Fprintf(b, "<svg class=\"connection-line\" data-id=\"%s\" data-source=\"%s\" data-destination=\"%s\" data-original-opacity=\"%s\" width=\"%d\" height=\"%d\" style=\"left:0;top:0;width:%dpx;height:%dpx;pointer-events:none;z-index:%d;opacity:%s;\">",
		html.EscapeString(c.ID), html.EscapeString(c.Source), html.EscapeString(c.Destination), num(opacity), w, h, w, h, c.ZIndex, initial)
	fmt.Fprintf(b, "<line x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\" stroke=\"%s\" stroke-width=\"%s\" stroke-linecap=\"round\"/></svg>\n",
		num(p1.X), num(p1.Y), num(p2.X), num(p2.Y), html.EscapeString(color), num(thickness))
}

// num prints f with at most three decimals and no trailing zeros.
func num(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	s := strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

const pageCSS = `body { margin: 0; padding: 16px; font-family: sans-serif; background: #f4f4f4; }
#toolbar { position: fixed; top: 8px; right: 8px; z-index: 2147483647; }
#toolbar button { padding: 6px 12px; font-size: 14px; cursor: pointer; }
#canvas { position: relative; overflow: hidden; margin: 0 auto; }
.map-image { position: absolute; user-select: none; pointer-events: none; }
.hotspot { position: absolute; box-sizing: border-box; display: flex; flex-direction: column; overflow: hidden; cursor: grab; user-select: none; transition: opacity 0.15s; }
.hotspot.dragging { cursor: grabbing; transition: none; }
.info-text { width: 100%; box-sizing: border-box; overflow-wrap: break-word; }
.info-text p { margin: 0 0 0.4em; }
.info-text ul, .info-text ol { margin: 0 0 0.4em; padding-left: 1.2em; }
.connection-line { position: absolute; transition: opacity 0.15s; }
`

const pageScript = `(function () {
  var STIFFNESS = 0.15, DAMPING = 0.8, GRAVITY = 0.02, REST = 0.5;

  var canvas = document.getElementById('canvas');
  var toggle = document.getElementById('toggle-info');
  var hotspots = Array.prototype.slice.call(canvas.querySelectorAll('.hotspot'));
  var lines = Array.prototype.slice.call(canvas.querySelectorAll('svg.connection-line'));
  var byId = {};
  var hovered = {};
  var showAllInfo = false;
  var drag = null;

  hotspots.forEach(function (h) {
    byId[h.dataset.id] = h;
    h._spring = { left: parseFloat(h.style.left), top: parseFloat(h.style.top), dx: 0, dy: 0, vx: 0, vy: 0, frame: 0 };
  });

  function gated(h) {
    return h.dataset.showOnHover === 'true' || h.dataset.showOnHoverConnected === 'true';
  }

  function linesOf(id) {
    return lines.filter(function (l) { return l.dataset.source === id || l.dataset.destination === id; });
  }

  function otherEnd(line, id) {
    return line.dataset.source === id ? line.dataset.destination : line.dataset.source;
  }

  // Shown on its own account: always visible, hovered, or forced by the toggle.
  function independentlyShown(id) {
    var h = byId[id];
    return !!h && (!gated(h) || showAllInfo || !!hovered[id]);
  }

  function neighbourHovered(id) {
    return linesOf(id).some(function (l) { return !!hovered[otherEnd(l, id)]; });
  }

  function shouldShow(h) {
    var id = h.dataset.id;
    if (independentlyShown(id)) return true;
    return h.dataset.showOnHoverConnected === 'true' && neighbourHovered(id);
  }

  function setVisible(h, on) {
    if (!gated(h)) return;
    h.style.opacity = on ? '1' : '0';
    var text = h.querySelector('.info-text');
    if (text) text.style.display = on ? 'block' : 'none';
  }

  function showLine(l, on) {
    l.style.opacity = on ? l.dataset.originalOpacity : '0';
  }

  function initiallyVisible(l) {
    var s = byId[l.dataset.source], d = byId[l.dataset.destination];
    return !!s && !!d && !gated(s) && !gated(d);
  }

  function center(h) {
    return { x: h.offsetLeft + h.offsetWidth / 2, y: h.offsetTop + h.offsetHeight / 2 };
  }

  // Point where the ray from h's center toward (tx, ty) leaves h's outline,
  // or the center when the target lies inside.
  function edgePoint(h, tx, ty) {
    var c = center(h);
    var dx = tx - c.x, dy = ty - c.y;
    if (dx === 0 && dy === 0) return c;
    var a = -(parseFloat(h.dataset.angle) || 0) * Math.PI / 180;
    var lx = dx * Math.cos(a) - dy * Math.sin(a);
    var ly = dx * Math.sin(a) + dy * Math.cos(a);
    var hw = h.offsetWidth / 2, hh = h.offsetHeight / 2;
    var t;
    if (h.dataset.shape === 'ellipse') {
      t = 1 / Math.sqrt((lx * lx) / (hw * hw) + (ly * ly) / (hh * hh));
    } else {
      t = Math.min(lx === 0 ? Infinity : hw / Math.abs(lx), ly === 0 ? Infinity : hh / Math.abs(ly));
    }
    if (!(t < 1)) return c;
    return { x: c.x + dx * t, y: c.y + dy * t };
  }

  function updateConnectionLines() {
    lines.forEach(function (l) {
      var s = byId[l.dataset.source], d = byId[l.dataset.destination];
      var seg = l.querySelector('line');
      if (!s || !d || !seg) return;
      var cs = center(s), cd = center(d);
      var p1 = edgePoint(s, cd.x, cd.y), p2 = edgePoint(d, cs.x, cs.y);
      seg.setAttribute('x1', p1.x);
      seg.setAttribute('y1', p1.y);
      seg.setAttribute('x2', p2.x);
      seg.setAttribute('y2', p2.y);
    });
  }

  function enter(h) {
    var id = h.dataset.id;
    hovered[id] = true;
    setVisible(h, true);
    linesOf(id).forEach(function (l) {
      showLine(l, true);
      var o = byId[otherEnd(l, id)];
      if (o && o.dataset.showOnHoverConnected === 'true') setVisible(o, true);
    });
  }

  function leave(h) {
    var id = h.dataset.id;
    delete hovered[id];
    setVisible(h, shouldShow(h));
    linesOf(id).forEach(function (l) {
      var oid = otherEnd(l, id);
      showLine(l, independentlyShown(oid) || independentlyShown(id));
      var o = byId[oid];
      if (o) setVisible(o, shouldShow(o));
    });
  }

  function place(h) {
    var s = h._spring;
    h.style.left = (s.left + s.dx) + 'px';
    h.style.top = (s.top + s.dy) + 'px';
  }

  function springBack(h) {
    var s = h._spring;
    s.vx = 0;
    s.vy = 0;
    function step() {
      s.vx += (0 - s.dx) * STIFFNESS;
      s.vy += (0 - s.dy) * STIFFNESS + GRAVITY;
      s.vx *= DAMPING;
      s.vy *= DAMPING;
      s.dx += s.vx;
      s.dy += s.vy;
      if (Math.abs(s.dx) < REST && Math.abs(s.dy) < REST && Math.abs(s.vx) < REST && Math.abs(s.vy) < REST) {
        s.dx = 0;
        s.dy = 0;
        s.frame = 0;
        place(h);
        updateConnectionLines();
        return;
      }
      place(h);
      updateConnectionLines();
      s.frame = requestAnimationFrame(step);
    }
    s.frame = requestAnimationFrame(step);
  }

  hotspots.forEach(function (h) {
    h.addEventListener('mouseenter', function () { enter(h); });
    h.addEventListener('mouseleave', function () { leave(h); });
    h.addEventListener('mousedown', function (e) {
      if (e.button !== 0) return;
      e.preventDefault();
      var s = h._spring;
      if (s.frame) {
        cancelAnimationFrame(s.frame);
        s.frame = 0;
      }
      drag = { h: h, x: e.clientX - s.dx, y: e.clientY - s.dy };
      h.classList.add('dragging');
    });
  });

  document.addEventListener('mousemove', function (e) {
    if (!drag) return;
    var s = drag.h._spring;
    s.dx = e.clientX - drag.x;
    s.dy = e.clientY - drag.y;
    place(drag.h);
    updateConnectionLines();
  });

  document.addEventListener('mouseup', function () {
    if (!drag) return;
    drag.h.classList.remove('dragging');
    springBack(drag.h);
    drag = null;
  });

  toggle.addEventListener('click', function () {
    showAllInfo = !showAllInfo;
    toggle.textContent = showAllInfo ? 'Hide all info' : 'Show all info';
    hotspots.forEach(function (h) { setVisible(h, shouldShow(h)); });
    lines.forEach(function (l) {
      var on = showAllInfo || initiallyVisible(l) || !!hovered[l.dataset.source] || !!hovered[l.dataset.destination];
      showLine(l, on);
    });
  });

  updateConnectionLines();
})();
`
