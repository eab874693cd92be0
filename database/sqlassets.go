package sqlassets

import _ "embed"

//go:embed schema/master_registry.sql
var MasterRegistrySQL string

//go:embed schema/club_database.sql
var ClubDatabaseSQL string
