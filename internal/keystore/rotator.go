package keystore

import "sync"

// Rotator holds signing keys in rotation order. Insertion order defines the
// rotation cycle; selecting a key moves it to the tail, so repeated unpinned
// selections cycle through every key before repeating.
//
// All operations are short in-memory mutations guarded by a single mutex.
type Rotator struct {
	mu      sync.Mutex
	records []*Record
}

// NewRotator creates an empty rotator
func NewRotator() *Rotator {
	return &Rotator{}
}

// Add appends the record at the tail. A record with the same key ID is
// replaced: the old record is removed first, so the new one takes the tail
// position and the key ID stays unique within the rotator.
func (r *Rotator) Add(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.records {
		if existing.KeyID == rec.KeyID {
			r.records = append(r.records[:i], r.records[i+1:]...)
			break
		}
	}
	r.records = append(r.records, rec)
}

// Select returns the next key in rotation order, or the key with the given
// key ID when kid is non-empty. The selected key moves to the tail; a pinned
// selection therefore still advances the unpinned rotation. Returns nil when
// the rotator is empty or no key matches.
func (r *Rotator) Select(kid string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if kid == "" || rec.KeyID == kid {
			r.records = append(r.records[:i], r.records[i+1:]...)
			r.records = append(r.records, rec)
			return rec
		}
	}
	return nil
}

// Export returns the publishable form of every key in current rotation order.
// With includePrivate false each entry passes through the algorithm family's
// redaction; with true every member is reproduced unchanged. Either way the
// entries are copies and the stored records are never mutated.
func (r *Rotator) Export(includePrivate bool) ([]map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]map[string]any, 0, len(r.records))
	for _, rec := range r.records {
		if includePrivate {
			out = append(out, rec.export())
			continue
		}

		pub, err := rec.exportPublic()
		if err != nil {
			return nil, err
		}
		out = append(out, pub)
	}
	return out, nil
}

// Len reports the number of keys currently held
func (r *Rotator) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
