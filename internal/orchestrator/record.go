package orchestrator

import "time"

// Record is the uniform result of a creation call: the provider's view
// of the machine plus what the broker resolved on the way there. It is a
// transient return value; the broker never stores it.
type Record struct {
	Provider     string            `json:"provider" yaml:"provider"`
	ImageType    string            `json:"image_type" yaml:"image_type"`
	ID           string            `json:"id" yaml:"id"`
	Address      string            `json:"address" yaml:"address"`
	Aux          map[string]string `json:"aux,omitempty" yaml:"aux,omitempty"`
	CreatedAt    int64             `json:"created_at" yaml:"created_at"` // seconds since epoch
	TTL          int64             `json:"ttl" yaml:"ttl"`               // seconds
	SSHPublicKey string            `json:"ssh_public_key,omitempty" yaml:"ssh_public_key,omitempty"`
}

// ExpiresAt returns the expiry instant in seconds since epoch.
func (r Record) ExpiresAt() int64 {
	return r.CreatedAt + r.TTL
}

// IsExpired reports whether the record has expired at the given instant.
// The boundary instant counts as expired. Expiry is derived, never
// stored: nothing enforces it automatically.
func (r Record) IsExpired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt()
}

// TimeToExpiry returns the seconds until expiry, negative once past it.
func (r Record) TimeToExpiry(now time.Time) int64 {
	return r.ExpiresAt() - now.Unix()
}

// FilterExpired returns the records expired at the given instant.
func FilterExpired(records []Record, now time.Time) []Record {
	var expired []Record
	for _, r := range records {
		if r.IsExpired(now) {
			expired = append(expired, r)
		}
	}
	return expired
}

// FilterActive returns the records not yet expired at the given instant.
// Together with FilterExpired it partitions the input exactly.
func FilterActive(records []Record, now time.Time) []Record {
	var active []Record
	for _, r := range records {
		if !r.IsExpired(now) {
			active = append(active, r)
		}
	}
	return active
}
