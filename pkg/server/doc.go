// Package server hosts an App over HTTP for live preview.
//
// The App renders into its in-memory document; the server exposes the
// mount point as an HTML page, pushes the mount content to WebSocket
// clients after every apply and turns posted events into DOM events.
//
// # Endpoints
//
//	GET  /          full HTML page with the current mount content
//	GET  /snapshot  mount inner HTML
//	POST /navigate  form value "path" (and optional "query"), calls App.Goto
//	POST /events    {"type":"click","target":"<id>"}, dispatched to the element
//	GET  /live      WebSocket, one text message per apply
//	GET  /metrics   Prometheus metrics, when configured
//	GET  /healthz   liveness probe
//
// # Usage
//
//	srv := server.New(app, server.DefaultConfig())
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
