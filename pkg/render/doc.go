// Package render serializes UI trees to HTML.
//
// It is used wherever a tree has to leave the process as text: the static
// exporter writes one file per route, and the preview server embeds the
// current mount content into a full page.
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(tree)
//
// Event handlers are never rendered; booleans follow HTML presence
// semantics. Text and attribute values are escaped with EscapeHTML and
// EscapeAttr, which package dom reuses for its own serialization.
package render
