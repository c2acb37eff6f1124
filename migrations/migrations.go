// Package migrations embeds the SQL schema files so the binary can migrate without a
// checkout of the repository.
package migrations

import "embed"

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
