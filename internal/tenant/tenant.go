// Package tenant defines the static tenant registry and per-tenant time
// handling. A tenant is one brand served by its own MCP server: a name, an
// ordered branch (channel) list, a listen port and a timezone, all resolved
// from the environment at boot.
package tenant

import (
	"fmt"

	"github.com/ai2b/zena-toolserver/internal/config"
)

// Names is the closed list of tenants this build knows how to assemble.
// Order determines supervisor start order.
var Names = []string{"sofia", "alisa"}

// Spec is one tenant's resolved runtime identity. Channels keeps its
// configured order: the first entry is the tenant's primary branch.
type Spec struct {
	Name     string
	Port     int
	Channels []int
}

// Resolve reads a tenant's port and channel list from the environment.
// Any missing or malformed key fails the whole boot.
func Resolve(name string) (Spec, error) {
	port, err := config.TenantPort(name)
	if err != nil {
		return Spec{}, fmt.Errorf("op=tenant.Resolve: %w", err)
	}
	channels, err := config.TenantChannels(name)
	if err != nil {
		return Spec{}, fmt.Errorf("op=tenant.Resolve: %w", err)
	}
	return Spec{Name: name, Port: port, Channels: channels}, nil
}

// Primary returns the tenant's primary branch id.
func (s Spec) Primary() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return s.Channels[0]
}

// HasChannel reports whether id is one of the tenant's branches.
func (s Spec) HasChannel(id int) bool {
	for _, c := range s.Channels {
		if c == id {
			return true
		}
	}
	return false
}
