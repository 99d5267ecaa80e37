// Package discovery publishes the service identity an external mDNS
// registrar would advertise (spec §6.6). The core never performs mDNS
// itself — that collaborator is explicitly out of scope (spec §1) — this
// package only fixes the constants a registrar needs.
package discovery

const (
	// ServiceType is the mDNS service type string external registrars
	// should advertise this server under.
	ServiceType = "_boardgo._tcp"

	// DefaultInstanceName is the default mDNS instance name.
	DefaultInstanceName = "Board Go"
)

// Identity is everything an external mDNS registrar needs to advertise this
// server: the fixed service type and instance name, plus the port actually
// bound at startup (spec §6.6 — "it only publishes the port so an external
// registrar can advertise it"). Port must come from the listener's real
// address, not the configured one, since BOARDGO_PORT=0 selects an
// ephemeral port chosen by the OS (spec §6.5).
type Identity struct {
	ServiceType  string
	InstanceName string
	Port         int
}

// NewIdentity builds the Identity for a server bound to port.
func NewIdentity(port int) Identity {
	return Identity{
		ServiceType:  ServiceType,
		InstanceName: DefaultInstanceName,
		Port:         port,
	}
}
