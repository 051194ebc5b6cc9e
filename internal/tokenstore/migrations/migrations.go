// Package migrations embeds the token store schema migrations.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
