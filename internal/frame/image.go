package frame

import (
	"fmt"
	"html"
	"net/http"
	"strings"
)

// handleImage draws the screen image as a simple square SVG. All content
// arrives in the query string, keeping the endpoint stateless and safely
// re-fetchable by frame clients.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("t")
	lines := q["l"]
	errMsg := q.Get("e")

	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="600" height="600" viewBox="0 0 600 600">`)
	b.WriteString(`<rect width="600" height="600" fill="#21064e"/>`)

	y := 220
	writeLine := func(text, fill string, size int) {
		if text == "" {
			return
		}
		fmt.Fprintf(&b,
			`<text x="300" y="%d" fill="%s" font-size="%d" font-family="monospace" text-anchor="middle">%s</text>`,
			y, fill, size, html.EscapeString(text))
		y += 48
	}

	writeLine(title, "#f5f0ff", 40)
	for _, line := range lines {
		writeLine(line, "#f5f0ff", 24)
	}
	writeLine(errMsg, "#ffb6b6", 24)

	b.WriteString(`</svg>`)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, b.String())
}
