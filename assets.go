// Package sona provides the console's embedded templates and static assets.
package sona

import "embed"

// In dev mode both are read from disk instead so edits show up without a rebuild.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
