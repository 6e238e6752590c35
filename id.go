package flowrelay

import "github.com/beclab/flowrelay/id"

// ID is the primary identifier type for all flowrelay entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
