package admin

// Registry holds every configured admin, keyed by code. Built once at
// startup and read-only afterwards.
type Registry struct {
	byCode map[string]*Descriptor
	order  []string
}

func NewRegistry(descriptors ...*Descriptor) (*Registry, error) {
	reg := &Registry{byCode: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d == nil {
			return nil, NewConfigurationError("nil admin descriptor")
		}
		if _, dup := reg.byCode[d.Code()]; dup {
			return nil, NewConfigurationError("duplicate admin code %q", d.Code())
		}
		reg.byCode[d.Code()] = d
		reg.order = append(reg.order, d.Code())
	}
	return reg, nil
}

// Get resolves an admin code carried in route metadata. Unknown codes are a
// not-found condition, not a configuration error: clients control the URL.
func (r *Registry) Get(code string) (*Descriptor, error) {
	d, ok := r.byCode[code]
	if !ok {
		return nil, NewNotFound("unable to find the admin for code %q", code)
	}
	return d, nil
}

// All returns the descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.byCode[code])
	}
	return out
}

func (r *Registry) Len() int { return len(r.byCode) }
