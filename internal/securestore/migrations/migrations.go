// Package migrations embeds the SQL migrations applied to the local secure
// store database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
