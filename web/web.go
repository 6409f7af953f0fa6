// package web embeds the browser client served on /
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed static
var static embed.FS

// Assets returns the embedded files rooted at the static directory
func Assets() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return sub
}

// Handler serves index.html on / and the remaining assets by name. Unknown
// paths without a file extension are client routes and also get index.html.
func Handler() http.Handler {
	assets := Assets()
	files := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name != "" && path.Ext(name) == "" {
			if _, err := fs.Stat(assets, name); err != nil {
				http.ServeFileFS(w, r, assets, "index.html")
				return
			}
		}

		files.ServeHTTP(w, r)
	})
}
