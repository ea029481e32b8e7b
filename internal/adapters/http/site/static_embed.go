package site

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFS embed.FS

// FS returns the embedded frontend rooted at static/.
func FS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return staticFS
	}
	return sub
}
