// Package appfs embeds files the app needs at runtime regardless of the
// working directory it is launched from.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
