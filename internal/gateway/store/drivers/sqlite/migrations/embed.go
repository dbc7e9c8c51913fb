// Package migrations embeds the SQL migration files so the driver can apply
// them from the compiled binary.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
