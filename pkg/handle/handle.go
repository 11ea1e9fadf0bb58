// Package handle implements the durable external-reference identifier
// format used to point at data owned by an activation:
// plugin@version::method[:meta0:meta1:...].
package handle

import (
	"fmt"
	"strings"
)

// Handle is a parsed, structured external reference. The grammar is exact:
// exactly one '@', exactly one '::', remaining metadata is colon-separated.
type Handle struct {
	Plugin  string
	Version string
	Method  string
	Meta    []string
}

// New builds a Handle with no metadata; chain Push to add entries.
func New(plugin, version, method string) Handle {
	return Handle{Plugin: plugin, Version: version, Method: method}
}

// Push appends one metadata entry and returns the (copied) result.
func (h Handle) Push(meta string) Handle {
	next := make([]string, len(h.Meta)+1)
	copy(next, h.Meta)
	next[len(h.Meta)] = meta
	h.Meta = next
	return h
}

// String renders the exact inverse of Parse: display of an empty meta list
// produces no trailing colon.
func (h Handle) String() string {
	var b strings.Builder
	b.WriteString(h.Plugin)
	b.WriteByte('@')
	b.WriteString(h.Version)
	b.WriteString("::")
	b.WriteString(h.Method)
	for _, m := range h.Meta {
		b.WriteByte(':')
		b.WriteString(m)
	}
	return b.String()
}

// Parse accepts plugin@version::method[:meta]*. Validation requires a
// non-empty plugin, version, and method; meta entries may be empty strings.
func Parse(s string) (Handle, error) {
	plugin, rest, ok := strings.Cut(s, "@")
	if !ok || plugin == "" {
		return Handle{}, fmt.Errorf("handle: missing '@' or empty plugin in %q", s)
	}

	version, methodAndMeta, ok := strings.Cut(rest, "::")
	if !ok || version == "" {
		return Handle{}, fmt.Errorf("handle: missing '::' or empty version in %q", s)
	}

	parts := strings.Split(methodAndMeta, ":")
	method := parts[0]
	if method == "" {
		return Handle{}, fmt.Errorf("handle: empty method in %q", s)
	}

	var meta []string
	if len(parts) > 1 {
		meta = append(meta, parts[1:]...)
	}

	return Handle{Plugin: plugin, Version: version, Method: method, Meta: meta}, nil
}
