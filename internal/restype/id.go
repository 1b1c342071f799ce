// Package restype holds the data model shared by every collaborator of the
// resource store: ids, kinds, variants, metadata, and the error taxonomy.
package restype

import (
	"github.com/google/uuid"
)

// ResourceId is an opaque, stable identifier. It is comparable and usable
// as a map key, and its zero value is the distinguished Root id.
type ResourceId struct {
	u uuid.UUID
}

// Root is the distinguished id of the single root container (I1).
var Root = ResourceId{u: uuid.Nil}

// NewResourceId allocates a fresh, random id.
func NewResourceId() ResourceId {
	return ResourceId{u: uuid.New()}
}

// ResourceIdFromUUID wraps an existing UUID as a ResourceId.
func ResourceIdFromUUID(u uuid.UUID) ResourceId {
	return ResourceId{u: u}
}

// ParseResourceId parses the canonical string form produced by String.
func ParseResourceId(s string) (ResourceId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ResourceId{}, err
	}
	return ResourceId{u: u}, nil
}

// IsRoot reports whether id is the distinguished root value.
func (id ResourceId) IsRoot() bool {
	return id == Root
}

func (id ResourceId) String() string {
	return id.u.String()
}

// MarshalText and UnmarshalText let ResourceId round-trip through JSON
// metadata (§6) as its canonical string form.
func (id ResourceId) MarshalText() ([]byte, error) {
	return []byte(id.u.String()), nil
}

func (id *ResourceId) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	id.u = u
	return nil
}
