package server

import (
	"io/fs"
	"net/http"
	"os"
	"path"
)

// handleSPA serves the editor front end from dir. Paths that are not files
// get index.html so the browser router can take over.
func handleSPA(dir string) http.HandlerFunc {
	root := os.DirFS(dir)
	files := http.FileServerFS(root)

	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean(r.URL.Path)[1:]
		if name != "" {
			if info, err := fs.Stat(root, name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFileFS(w, r, root, "index.html")
	}
}
