// internal/web/static/fileserver.go
package static

import (
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// Handler serves files from fsys with support for pre-compressed variants.
//
// The urlPrefix is stripped from the request URL before lookup: with prefix
// "/static", a request for "/static/css/site.css" resolves "css/site.css".
// If Accept-Encoding includes "br" or "gzip" and a sibling file with a .br
// or .gz suffix exists, that variant is served with the matching
// Content-Encoding header and the original file's Content-Type.
//
// Assets are fingerprinted by Version(), so far-future caching is safe.
func Handler(urlPrefix string, fsys fs.FS) http.Handler {
	plain := http.FileServerFS(fsys)

	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			plain.ServeHTTP(w, r)
			return
		}

		req := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

		candidates := []struct {
			ext      string
			encoding string
			accepted bool
		}{
			{".br", "br", acceptsEncoding(r, "br")},
			{".gz", "gzip", acceptsEncoding(r, "gzip")},
		}

		for _, cand := range candidates {
			if !cand.accepted {
				continue
			}

			f, err := fsys.Open(req + cand.ext)
			if err != nil {
				continue
			}

			fi, err := f.Stat()
			if err != nil || fi.IsDir() {
				_ = f.Close()
				continue
			}

			w.Header().Set("Content-Encoding", cand.encoding)
			w.Header().Set("Vary", "Accept-Encoding")
			w.Header().Set("Content-Type", mimeTypeByOriginal(req))

			if rs, ok := f.(io.ReadSeeker); ok {
				// Embedded files report a zero mod time, which disables
				// Last-Modified; the fingerprint query handles caching.
				http.ServeContent(w, r, req, fi.ModTime(), rs)
			} else {
				// embed.FS files are ReadSeekers, but guard anyway.
				w.WriteHeader(http.StatusOK)
				_, _ = io.Copy(w, f)
			}
			_ = f.Close()
			return
		}

		plain.ServeHTTP(w, r)
	}))
}

// acceptsEncoding reports whether the client accepts the given encoding.
func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc := strings.TrimSpace(part)
		if idx := strings.Index(enc, ";"); idx != -1 {
			enc = strings.TrimSpace(enc[:idx])
		}
		if enc == encoding {
			return true
		}
	}
	return false
}

// mimeTypeByOriginal resolves the Content-Type from the original (pre-
// compression) filename, so a .css.gz is still served as text/css.
func mimeTypeByOriginal(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
