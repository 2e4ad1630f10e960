package render

import (
	"fmt"
	"io"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Title is the page title.
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string

	// MountID is the id of the element holding Body. Defaults to "app".
	MountID string

	// Body is the already-rendered inner HTML of the mount element.
	Body string

	// LiveURL, when set, adds a client script that replaces the mount
	// content with each WebSocket message and forwards clicks on elements
	// with an id to EventsURL.
	LiveURL   string
	EventsURL string
}

// liveScript swaps the mount content for each WebSocket message and posts
// clicks on elements with an id.
const liveScript = `<script>
(function(){
  var mount = document.getElementById(%q);
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + %q);
  ws.onmessage = function(ev){ mount.innerHTML = ev.data; };
  mount.addEventListener("click", function(ev){
    var el = ev.target.closest("[id]");
    if (!el) return;
    fetch(%q, {method: "POST", headers: {"Content-Type": "application/json"},
      body: JSON.stringify({type: "click", target: el.id})});
  });
})();
</script>
`

// RenderPage renders a complete HTML document to the given writer.
func RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}
	mountID := page.MountID
	if mountID == "" {
		mountID = "app"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n<meta charset=\"utf-8\">\n", EscapeAttr(lang)); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "<title>%s</title>\n", EscapeHTML(page.Title)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "</head>\n<body>\n<div id=\"%s\">%s</div>\n", EscapeAttr(mountID), page.Body); err != nil {
		return err
	}
	if page.LiveURL != "" {
		if _, err := fmt.Fprintf(w, liveScript, mountID, page.LiveURL, page.EventsURL); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
