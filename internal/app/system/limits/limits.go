// Package limits holds request body size caps shared by the HTTP features.
package limits

const (
	// MaxEntryBody caps create, edit and delete payloads for reference entries.
	MaxEntryBody = 64 << 10 // 64 KB

	// MaxSessionBody caps POST /session, which carries two short strings.
	MaxSessionBody = 4 << 10 // 4 KB
)
