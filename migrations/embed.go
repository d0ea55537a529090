// Package migrations embeds the SQL migrations for the shared credential slot.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
