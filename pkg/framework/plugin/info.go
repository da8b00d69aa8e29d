package plugin

import (
	"errors"

	"github.com/google/uuid"
)

// Info describes a processor's static identity and metadata.
type Info struct {
	ID       string // Stable identifier, e.g. "sushi.internal.gain"
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string // Author/collaborator name
	Category string // Processor category (e.g., "fx", "instrument", "utility")
}

// staticUIDNamespace anchors the deterministic UUIDs generated for processors
// that declare no natural stable ID of their own.
var staticUIDNamespace = uuid.MustParse("6b1f9b0e-7c9d-4c0a-9e2d-2f6b6a9d6e01")

// StaticUID returns a stable identifier for this processor. If ID is set it is
// returned directly (the processor author owns that namespace); otherwise a
// UUID is derived deterministically from Name and Version so that two
// processor instances built from the same Info always report the same
// identity, without requiring the author to hand-pick one.
func (i Info) StaticUID() string {
	if i.ID != "" {
		return i.ID
	}
	return uuid.NewSHA1(staticUIDNamespace, []byte(i.Name+"|"+i.Version)).String()
}

// Validate checks that Info carries the minimum fields the engine requires
// before registering a processor.
func (i Info) Validate() error {
	if i.Name == "" {
		return errors.New("plugin: processor info missing Name")
	}
	return nil
}
