package region

import (
	"fmt"
	"strings"
)

// Kind is an endpoint exposed by every regional portal.
type Kind int

const (
	Search Kind = iota
	Meal
	Calendar
	Bootstrap
)

func (k Kind) String() string {
	switch k {
	case Search:
		return "search"
	case Meal:
		return "meal"
	case Calendar:
		return "calendar"
	case Bootstrap:
		return "bootstrap"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Endpoints are the paths of each endpoint relative to the host.
type Endpoints struct {
	Search    string `json:"search"`
	Meal      string `json:"meal"`
	Calendar  string `json:"calendar"`
	Bootstrap string `json:"bootstrap"`
}

func (e Endpoints) Path(kind Kind) (string, error) {
	var path string
	switch kind {
	case Search:
		path = e.Search
	case Meal:
		path = e.Meal
	case Calendar:
		path = e.Calendar
	case Bootstrap:
		path = e.Bootstrap
	default:
		return "", fmt.Errorf("unknown endpoint kind %s", kind)
	}
	if path == "" {
		return "", fmt.Errorf("no path configured for %s endpoint", kind)
	}
	return path, nil
}

type Entry struct {
	Host      string    `json:"host"`
	Endpoints Endpoints `json:"endpoints"`
}

// URL renders the absolute url of an endpoint, ex. https://stu.sen.go.kr/spr_ccm_cm01_100.do
func (e Entry) URL(scheme string, kind Kind) (string, error) {
	path, err := e.Endpoints.Path(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s://%s/%s", scheme, e.Host, strings.TrimPrefix(path, "/")), nil
}

// Registry maps each region to the portal that serves it. A Registry is never mutated after
// construction so it can be shared freely.
type Registry struct {
	entries map[ID]Entry
}

func NewRegistry(entries map[ID]Entry) (Registry, error) {
	copied := make(map[ID]Entry, len(entries))
	for id, entry := range entries {
		if !id.Valid() {
			return Registry{}, fmt.Errorf("%w: %d", ErrUnknownRegion, int(id))
		}
		if entry.Host == "" {
			return Registry{}, fmt.Errorf("region %s: empty host", id)
		}
		copied[id] = entry
	}
	return Registry{entries: copied}, nil
}

func (r Registry) Lookup(id ID) (Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s has no registry entry", ErrUnknownRegion, id)
	}
	return entry, nil
}

func (r Registry) Has(id ID) bool {
	_, ok := r.entries[id]
	return ok
}

// Override replaces parts of a registry entry, empty fields are left untouched.
type Override struct {
	Host      string    `json:"host"`
	Endpoints Endpoints `json:"endpoints"`
}

// Merge returns a new registry with overrides applied, overrides are keyed by region name.
func (r Registry) Merge(overrides map[string]Override) (Registry, error) {
	merged := make(map[ID]Entry, len(r.entries))
	for id, entry := range r.entries {
		merged[id] = entry
	}
	for name, o := range overrides {
		id, err := ParseID(name)
		if err != nil {
			return Registry{}, err
		}
		entry := merged[id]
		if o.Host != "" {
			entry.Host = o.Host
		}
		if o.Endpoints.Search != "" {
			entry.Endpoints.Search = o.Endpoints.Search
		}
		if o.Endpoints.Meal != "" {
			entry.Endpoints.Meal = o.Endpoints.Meal
		}
		if o.Endpoints.Calendar != "" {
			entry.Endpoints.Calendar = o.Endpoints.Calendar
		}
		if o.Endpoints.Bootstrap != "" {
			entry.Endpoints.Bootstrap = o.Endpoints.Bootstrap
		}
		merged[id] = entry
	}
	return NewRegistry(merged)
}
