// Package migrations embeds the client drafts schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
