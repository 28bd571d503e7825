// Package migrations embeds the goose migration files for the postgres store.
//
// go:embed compiles the .sql files into the binary, so a deployment is a
// single executable — no migrations directory to ship alongside it.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
