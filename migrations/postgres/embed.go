// Package migrations embeds SQL migration files.
package migrations

import "embed"

// AuditFS contains the migrations for the social grant audit table.
//
//go:embed audit/*.sql
var AuditFS embed.FS

// AuditDir is the directory within AuditFS where migrations live.
const AuditDir = "audit"
