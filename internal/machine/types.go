package machine

import "time"

// Schematic is an immutable, named definition of a state machine.
//
// The repository core never interprets States or Transitions; they are
// carried opaquely for the execution engine. Name is purely a lookup key and
// does not participate in identity: two schematics with identical serialized
// bytes deduplicate to the same stored blob regardless of how they were
// named.
type Schematic struct {
	Name         string           `msgpack:"name" json:"name" yaml:"name"`
	InitialState string           `msgpack:"initialState" json:"initial_state" yaml:"initial_state"`
	States       map[string]State `msgpack:"states" json:"states,omitempty" yaml:"states,omitempty"`
}

// State describes one state of a schematic: a mapping from input to the next
// state. Opaque to this package.
type State struct {
	Transitions map[string]string `msgpack:"transitions" json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// Metadata is caller-supplied, opaque key/value data attached to a machine at
// creation. No repository operation mutates it after creation.
type Metadata map[string]string

// StatusRecord is the persisted, mutable representation of one running
// machine instance. It references its schematic by content hash; multiple
// records may share one schematic blob, and deleting a record never deletes
// the referenced blob.
type StatusRecord struct {
	MachineID     string    `msgpack:"machineId" json:"machine_id"`
	SchematicHash string    `msgpack:"schematicHash" json:"schematic_hash"`
	State         string    `msgpack:"state" json:"state"`
	CommitNumber  int64     `msgpack:"commitNumber" json:"commit_number"`
	UpdatedTime   time.Time `msgpack:"updatedTime" json:"updated_time"`
	Metadata      Metadata  `msgpack:"metadata" json:"metadata,omitempty"`
}

// StatusView is the caller-facing composite of a status record with its
// schematic resolved in place. It is an ephemeral read model and is never
// itself persisted.
type StatusView struct {
	MachineID    string    `json:"machine_id"`
	Schematic    Schematic `json:"schematic"`
	State        string    `json:"state"`
	CommitNumber int64     `json:"commit_number"`
	UpdatedTime  time.Time `json:"updated_time"`
	Metadata     Metadata  `json:"metadata,omitempty"`
}

// View resolves a record into a StatusView using the given schematic.
func (r StatusRecord) View(s Schematic) StatusView {
	return StatusView{
		MachineID:    r.MachineID,
		Schematic:    s,
		State:        r.State,
		CommitNumber: r.CommitNumber,
		UpdatedTime:  r.UpdatedTime,
		Metadata:     r.Metadata,
	}
}
