package models

import "time"

// Attribute keys present in resolved records.
const (
	AttrCountry = "country"
	AttrRegion  = "region"
	AttrCity    = "city"
	AttrISP     = "isp"
	AttrStatus  = "status"
)

// Status attribute values. Sentinel records carry one of the non-resolved
// statuses instead of geo attributes.
const (
	StatusResolved = "resolved"
	StatusPrivate  = "private network"
	StatusInvalid  = "invalid"
	StatusUnknown  = "unknown"
)

// Record is the resolved key-to-attributes value returned to callers.
// Records are immutable once created; a new lookup produces a new record.
type Record struct {
	Key        string            `json:"key"`
	Attributes map[string]string `json:"attributes"`
	ResolvedAt time.Time         `json:"resolved_at"`
}

// NewRecord creates a record resolved now.
func NewRecord(key string, attrs map[string]string) *Record {
	return NewRecordAt(key, attrs, time.Now())
}

// NewRecordAt creates a record with an explicit resolution time. Used when
// rehydrating from the persistent store, where the record is attributed to
// the time it was originally resolved.
func NewRecordAt(key string, attrs map[string]string, resolvedAt time.Time) *Record {
	if attrs == nil {
		attrs = map[string]string{}
	}
	if _, ok := attrs[AttrStatus]; !ok {
		attrs[AttrStatus] = StatusResolved
	}
	return &Record{
		Key:        key,
		Attributes: attrs,
		ResolvedAt: resolvedAt,
	}
}

// Sentinel creates a well-formed placeholder record for keys that cannot be
// resolved: invalid input, private addresses, or total provider failure.
// Callers always receive a record, never an error.
func Sentinel(key, status string) *Record {
	return &Record{
		Key:        key,
		Attributes: map[string]string{AttrStatus: status},
		ResolvedAt: time.Now(),
	}
}

// Status returns the record's status attribute.
func (r *Record) Status() string {
	return r.Attributes[AttrStatus]
}

// IsSentinel reports whether the record is a placeholder rather than a
// successfully resolved value.
func (r *Record) IsSentinel() bool {
	s := r.Status()
	return s != "" && s != StatusResolved
}

// StoredRecord is one persistent row for a resolved key.
type StoredRecord struct {
	Key          string
	Attributes   map[string]string
	LastUpdated  time.Time
	ExpiresAt    time.Time
	AccessCount  int64
	LastAccessed time.Time
}
