// Package migrations embeds the SQL files for the identity tables the
// gateway reads. The content platform owns the schema; these migrations
// exist for local development and test databases.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
