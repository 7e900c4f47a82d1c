// Package static embeds the site's CSS, JS, and images and serves them with
// support for pre-compressed (.br/.gz) variants. Version() returns a content
// hash used as a cache-busting query parameter in asset URLs.
package static

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"sync"
)

//go:embed assets
var assetsFS embed.FS

// FS returns the embedded asset tree rooted at "assets".
func FS() fs.FS {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		// The subtree is embedded at compile time; failure here is a build bug.
		panic("static: assets subtree missing: " + err.Error())
	}
	return sub
}

var (
	versionOnce sync.Once
	version     string
)

// Version computes a 10-character hex SHA-256 fingerprint of all embedded
// assets. It is stable for the lifetime of the binary, so it changes exactly
// when a deploy changes an asset.
func Version() string {
	versionOnce.Do(func() {
		h := sha256.New()
		_ = fs.WalkDir(FS(), ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if data, rerr := fs.ReadFile(FS(), path); rerr == nil {
				h.Write(data)
			}
			return nil
		})
		version = hex.EncodeToString(h.Sum(nil))[:10]
	})
	return version
}
