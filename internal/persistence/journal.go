package persistence

import "time"

// RegistrationStatus mirrors the AgentIdentity registration status enum.
type RegistrationStatus string

const (
	StatusSuccess           RegistrationStatus = "success"
	StatusAlreadyRegistered RegistrationStatus = "already_registered"
	StatusFailed            RegistrationStatus = "failed"
)

// RegistrationRecord is one (agent, network) entry in the identity journal.
type RegistrationRecord struct {
	AgentID      string             `json:"agent_id"`
	Transaction  string             `json:"transaction"`
	RegisteredAt time.Time          `json:"registered_at"`
	Status       RegistrationStatus `json:"status"`
	Error        string             `json:"error,omitempty"`
}

// IdentityRecord is one agent's full journal entry, keyed by address.
type IdentityRecord struct {
	Address       string                         `json:"address"`
	Name          string                         `json:"name"`
	Index         uint32                         `json:"index"`
	Type          string                         `json:"type"`
	ExecutorID    string                         `json:"executor_id,omitempty"`
	Registrations map[string]RegistrationRecord `json:"registrations"`
}

// IdentityJournal is the append-through persistence layer for identities.json.
type IdentityJournal struct {
	path    string
	records map[string]*IdentityRecord // keyed by address
}

// OpenJournal loads an existing identities.json if present, or starts an
// empty one. A crash leaves whatever was last written on disk intact.
func OpenJournal(path string) (*IdentityJournal, error) {
	j := &IdentityJournal{path: path, records: make(map[string]*IdentityRecord)}
	if !Exists(path) {
		return j, nil
	}

	var stored []*IdentityRecord
	if err := ReadJSON(path, &stored); err != nil {
		return nil, err
	}
	for _, r := range stored {
		if r.Registrations == nil {
			r.Registrations = make(map[string]RegistrationRecord)
		}
		j.records[r.Address] = r
	}
	return j, nil
}

// Get returns the record for address, creating an empty one if absent.
func (j *IdentityJournal) Get(address, name string, index uint32, typ string) *IdentityRecord {
	r, ok := j.records[address]
	if !ok {
		r = &IdentityRecord{
			Address:       address,
			Name:          name,
			Index:         index,
			Type:          typ,
			Registrations: make(map[string]RegistrationRecord),
		}
		j.records[address] = r
	}
	return r
}

// Status reports the current registration status for (address, network), or
// "" if the pair has never been attempted.
func (j *IdentityJournal) Status(address, network string) RegistrationStatus {
	r, ok := j.records[address]
	if !ok {
		return ""
	}
	rec, ok := r.Registrations[network]
	if !ok {
		return ""
	}
	return rec.Status
}

// Put records the outcome of one (agent, network) step and immediately
// flushes the whole journal to disk — the idempotent-resumption contract
// depends on every step being durable before the next one starts.
func (j *IdentityJournal) Put(address, network string, rec RegistrationRecord) error {
	r := j.records[address]
	r.Registrations[network] = rec
	return j.Flush()
}

// Flush rewrites the journal file in full.
func (j *IdentityJournal) Flush() error {
	out := make([]*IdentityRecord, 0, len(j.records))
	for _, r := range j.records {
		out = append(out, r)
	}
	return WriteJSON(j.path, out)
}
