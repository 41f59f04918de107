package storage

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
)

// AssetHandler serves files below dir of p. The request path is taken
// relative to the mount point, so it should be mounted with http.StripPrefix
// or a chi wildcard route.
func AssetHandler(p Provider, dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, "/")
		if rel == "" || strings.HasPrefix(rel, ".") {
			http.NotFound(w, r)
			return
		}
		f, info, err := p.Open(dir + "/" + rel)
		if err != nil {
			switch {
			case errors.Is(err, fs.ErrPermission):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.NotFound(w, r)
			}
			return
		}
		defer f.Close()
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}
