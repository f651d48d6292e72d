// Package assets embeds the page shell and its static files.
package assets

import (
	"embed"

	"github.com/benbjohnson/hashfs"
)

//go:embed static
var StaticFS embed.FS

// StaticHashFS serves StaticFS under content hashed names.
var StaticHashFS = hashfs.NewFS(StaticFS)

//go:embed template
var TemplateFS embed.FS
