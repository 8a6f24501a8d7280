package frontend

import "embed"

//go:embed views
var templateFS embed.FS

const viewsPattern = "views/*.html"
