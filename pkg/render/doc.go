// Package render serializes VNode trees to HTML without reconciling them
// into a host.
//
// The compact form matches memdom's serialization of a reconciled document,
// which makes it usable as a reference when checking a render pass:
//
//	want, err := render.HTML(tree)
//	// ... engine.Render(ctx, tree, container) into a memdom.Document
//	if doc.HTML() != want { ... }
//
// Pretty mode indents block elements for display:
//
//	r := render.NewRenderer(render.RendererConfig{Pretty: true})
//	html, err := r.RenderToString(tree)
//
// Escaping helpers are shared with memdom so both serializations agree.
package render
