//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/engine"
	"github.com/inamate/infomap/internal/export"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(nil)

	infomapEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	infomapEngine.Set("loadDocument", js.FuncOf(loadDocument))
	infomapEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	infomapEngine.Set("pointerDown", js.FuncOf(pointer(eng.PointerDown)))
	infomapEngine.Set("pointerMove", js.FuncOf(pointer(eng.PointerMove)))
	infomapEngine.Set("pointerUp", js.FuncOf(pointer(eng.PointerUp)))
	infomapEngine.Set("setSelection", js.FuncOf(setSelection))
	infomapEngine.Set("addArea", js.FuncOf(addArea))
	infomapEngine.Set("deleteSelection", js.FuncOf(deleteSelection))
	infomapEngine.Set("connect", js.FuncOf(connect))
	infomapEngine.Set("setAreaProperty", js.FuncOf(setAreaProperty))
	infomapEngine.Set("applyStyle", js.FuncOf(applyStyle))
	infomapEngine.Set("saveStyle", js.FuncOf(saveStyle))
	infomapEngine.Set("deleteStyle", js.FuncOf(deleteStyle))
	infomapEngine.Set("raise", js.FuncOf(restack(eng.Raise)))
	infomapEngine.Set("lower", js.FuncOf(restack(eng.Lower)))
	infomapEngine.Set("bringToFront", js.FuncOf(restack(eng.BringToFront)))
	infomapEngine.Set("sendToBack", js.FuncOf(restack(eng.SendToBack)))
	infomapEngine.Set("align", js.FuncOf(align))

	// --- Queries (frontend ← engine) ---
	infomapEngine.Set("render", js.FuncOf(render))
	infomapEngine.Set("hitTest", js.FuncOf(hitTest))
	infomapEngine.Set("getDocument", js.FuncOf(getDocument))
	infomapEngine.Set("getSelection", js.FuncOf(getSelection))
	infomapEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	infomapEngine.Set("isBusy", js.FuncOf(isBusy))
	infomapEngine.Set("exportHTML", js.FuncOf(exportHTML))

	js.Global().Set("infomapEngine", infomapEngine)
	js.Global().Set("infomapWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func fail(msg string) any {
	return js.ValueOf(map[string]any{"error": msg})
}

func result(err error) any {
	if err != nil {
		return fail(err.Error())
	}
	return ok()
}

func created(id string, err error) any {
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(map[string]any{"ok": true, "id": id})
}

func asJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func stringArgs(args []js.Value, n int) ([]string, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]string, n)
	for i := range n {
		out[i] = args[i].String()
	}
	return out, true
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing document JSON")
	}
	var doc document.Project
	if err := json.Unmarshal([]byte(args[0].String()), &doc); err != nil {
		return fail(err.Error())
	}
	eng.Load(&doc)
	return ok()
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	name := "sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	eng.Load(document.NewSampleProject(name))
	return ok()
}

// pointer adapts a pointer handler to (x, y, shift) arguments.
func pointer(fn func(engine.PointerEvent)) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 2 {
			return nil
		}
		ev := engine.PointerEvent{Pos: geom.Pt(args[0].Float(), args[1].Float())}
		if len(args) > 2 {
			ev.Shift = args[2].Truthy()
		}
		fn(ev)
		return nil
	}
}

func setSelection(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.ClearSelection()
		return nil
	}
	arr := args[0]
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	eng.Select(ids...)
	return nil
}

func addArea(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return fail("missing position")
	}
	return created(eng.AddArea(geom.Pt(args[0].Float(), args[1].Float())))
}

func deleteSelection(this js.Value, args []js.Value) any {
	sel := eng.Selection()
	if len(sel) == 0 {
		return ok()
	}
	return result(eng.Delete(sel...))
}

func connect(this js.Value, args []js.Value) any {
	ids, found := stringArgs(args, 2)
	if !found {
		return fail("missing area ids")
	}
	return created(eng.Connect(ids[0], ids[1]))
}

func setAreaProperty(this js.Value, args []js.Value) any {
	ids, found := stringArgs(args, 3)
	if !found {
		return fail("missing arguments")
	}
	var v any
	if err := json.Unmarshal([]byte(ids[2]), &v); err != nil {
		return fail(err.Error())
	}
	return result(eng.SetAreaProperty(ids[0], ids[1], v))
}

func applyStyle(this js.Value, args []js.Value) any {
	ids, found := stringArgs(args, 2)
	if !found {
		return fail("missing arguments")
	}
	return result(eng.ApplyStyle(ids[0], ids[1]))
}

func saveStyle(this js.Value, args []js.Value) any {
	ids, found := stringArgs(args, 2)
	if !found {
		return fail("missing arguments")
	}
	overwrite := len(args) > 2 && args[2].Truthy()
	return result(eng.SaveStyle(ids[0], ids[1], overwrite))
}

func deleteStyle(this js.Value, args []js.Value) any {
	ids, found := stringArgs(args, 2)
	if !found {
		return fail("missing arguments")
	}
	k, err := style.ParseKind(ids[0])
	if err != nil {
		return fail(err.Error())
	}
	return result(eng.DeleteStyle(k, ids[1]))
}

func restack(fn func(string) error) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return fail("missing item id")
		}
		return result(fn(args[0].String()))
	}
}

func align(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing mode")
	}
	return result(eng.Align(engine.AlignMode(args[0].String())))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.RenderJSON())
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(geom.Pt(args[0].Float(), args[1].Float())))
}

func getDocument(this js.Value, args []js.Value) any {
	s, err := eng.DocumentJSON()
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(s)
}

func getSelection(this js.Value, args []js.Value) any {
	return asJSON(eng.Selection())
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	return asJSON(eng.SelectionBounds())
}

func isBusy(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Busy())
}

func exportHTML(this js.Value, args []js.Value) any {
	doc := eng.Document()
	if doc == nil {
		return fail("no document loaded")
	}
	page, err := export.RenderHTML(doc, export.Options{})
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(page)
}
