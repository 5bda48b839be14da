package web

import "embed"

// Templates embeds HTML report templates.
//
//go:embed templates/**/*.html
var Templates embed.FS
