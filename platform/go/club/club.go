package club

import "time"

// VehicleType categorizes a club's fleet.
type VehicleType string

const (
	VehicleBoat  VehicleType = "boat"
	VehiclePlane VehicleType = "plane"
)

// Noun is the member-facing word for one vehicle of this type.
func (t VehicleType) Noun() string {
	if t == VehiclePlane {
		return "aircraft"
	}
	return "boat"
}

// Club is one isolated organization in the registry. Immutable after
// provisioning except for the activation flag and branding settings.
type Club struct {
	ID           int64
	Name         string
	ShortName    string
	VehicleType  VehicleType
	DBName       string
	DBUser       string
	Subdomain    string
	ContactEmail string
	Timezone     string
	IsActive     bool
	CreatedAt    time.Time
}

// SharedDatabase reports whether the club runs without per-club DB
// credentials, i.e. the shared-connection single-club deployment.
func (c Club) SharedDatabase() bool {
	return c.DBUser == ""
}
