package appfs

import "embed"

// FS holds the assets the app needs at runtime: goose migrations and mail templates.
//go:embed migrations templates
var FS embed.FS
