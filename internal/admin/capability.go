package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Capability is one verb of the admin permission model.
type Capability int64

const (
	CapList Capability = 1 << iota
	CapCreate
	CapEdit
	CapDelete
	CapView
	CapExport
	CapMaster
)

var capabilityNames = map[Capability]string{
	CapList:   "LIST",
	CapCreate: "CREATE",
	CapEdit:   "EDIT",
	CapDelete: "DELETE",
	CapView:   "VIEW",
	CapExport: "EXPORT",
	CapMaster: "MASTER",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", int64(c))
}

// ParseCapability maps a verb name to its capability, case-insensitively.
func ParseCapability(name string) (Capability, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for c, n := range capabilityNames {
		if n == want {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}

// Capabilities is a bitmask set of capability verbs.
type Capabilities int64

func NewCapabilities(caps ...Capability) Capabilities {
	var s Capabilities
	for _, c := range caps {
		s |= Capabilities(c)
	}
	return s
}

// AllCapabilities grants every verb.
func AllCapabilities() Capabilities {
	return NewCapabilities(CapList, CapCreate, CapEdit, CapDelete, CapView, CapExport, CapMaster)
}

// Has reports whether the set grants c. MASTER implies every verb.
func (s Capabilities) Has(c Capability) bool {
	if s&Capabilities(CapMaster) != 0 {
		return true
	}
	return s&Capabilities(c) != 0
}

func (s Capabilities) Add(c Capability) Capabilities { return s | Capabilities(c) }

func (s Capabilities) Union(other Capabilities) Capabilities { return s | other }

func (s Capabilities) IsZero() bool { return s == 0 }

// Names returns the granted verb names in stable order.
func (s Capabilities) Names() []string {
	names := make([]string, 0, len(capabilityNames))
	for c, n := range capabilityNames {
		if s&Capabilities(c) != 0 {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// ParseCapabilities folds verb names into a set.
func ParseCapabilities(names []string) (Capabilities, error) {
	var s Capabilities
	for _, name := range names {
		c, err := ParseCapability(name)
		if err != nil {
			return 0, err
		}
		s = s.Add(c)
	}
	return s, nil
}

// Actor identifies the authenticated operator behind a request.
type Actor struct {
	OperatorID uint
	Email      string
	SessionID  string
	Roles      []string
}

// Authorizer answers capability checks for one actor against one admin.
// objectID is empty for collection-scoped checks; object-scoped checks also
// consult per-object ACL grants.
type Authorizer interface {
	Granted(ctx context.Context, actor Actor, adminCode string, c Capability, objectID string) (bool, error)
}
