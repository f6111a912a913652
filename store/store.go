package store

import (
	"io"
	"log"
	"sync"

	"github.com/minio/highwayhash"

	"github.com/spektr-org/evalpivot/engine"
	"github.com/spektr-org/evalpivot/record"
	"github.com/spektr-org/evalpivot/schema"
)

// ============================================================================
// STORE — In-memory record set behind a dashboard
// ============================================================================
// Holds flattened records, drops exact duplicates by fingerprint, optionally
// caps the record count, and notifies subscribers after each change.
//
// Readers take snapshots (View) and never see later ingests.
// ============================================================================

// fingerprintKey is the 32-byte HighwayHash key used for record fingerprints.
var fingerprintKey = []byte("evalpivot-record-fingerprint-key")

// Change describes one mutation of the store.
type Change struct {
	Added   int // records appended
	Dropped int // duplicates ignored
	Evicted int // oldest records removed to honour the capacity
	Total   int // records held afterwards
}

// Option configures a Store.
type Option func(*config)

type config struct {
	capacity int
	dedupe   bool
	logger   *log.Logger
}

// WithCapacity keeps at most n records, evicting the oldest first.
// n <= 0 means unbounded.
func WithCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

// WithDuplicates keeps records even when an identical one is already held.
func WithDuplicates() Option {
	return func(c *config) { c.dedupe = false }
}

// WithLogger routes store logging to l. Nil discards it.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		c.logger = l
	}
}

// Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	cfg         config
	records     []record.Flat
	prints      []uint64
	seen        map[uint64]int
	nextID      int
	subscribers map[int]func(Change)
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	cfg := config{dedupe: true, logger: log.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{
		cfg:         cfg,
		seen:        make(map[uint64]int),
		subscribers: make(map[int]func(Change)),
	}
}

// ============================================================================
// INGEST
// ============================================================================

// Ingest flattens documents and appends them. Returns the number added.
func (s *Store) Ingest(docs ...any) int {
	flats := make([]record.Flat, len(docs))
	for i, doc := range docs {
		flats[i] = record.Flatten(doc)
	}
	return s.IngestFlat(flats...)
}

// IngestFlat appends already-flattened records. Returns the number added.
func (s *Store) IngestFlat(flats ...record.Flat) int {
	s.mu.Lock()
	change := Change{}
	for _, flat := range flats {
		fp := Fingerprint(flat)
		if s.cfg.dedupe && s.seen[fp] > 0 {
			change.Dropped++
			continue
		}
		s.records = append(s.records, flat)
		s.prints = append(s.prints, fp)
		s.seen[fp]++
		change.Added++
	}
	change.Evicted = s.evictLocked()
	change.Total = len(s.records)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.cfg.logger.Printf("📥 store: +%d records (%d duplicate, %d evicted), %d held",
		change.Added, change.Dropped, change.Evicted, change.Total)
	notify(subs, change)
	return change.Added
}

// evictLocked drops the oldest records beyond capacity.
func (s *Store) evictLocked() int {
	over := len(s.records) - s.cfg.capacity
	if s.cfg.capacity <= 0 || over <= 0 {
		return 0
	}
	for _, fp := range s.prints[:over] {
		if s.seen[fp]--; s.seen[fp] <= 0 {
			delete(s.seen, fp)
		}
	}
	s.records = append([]record.Flat(nil), s.records[over:]...)
	s.prints = append([]uint64(nil), s.prints[over:]...)
	return over
}

// Reset drops every record.
func (s *Store) Reset() {
	s.mu.Lock()
	change := Change{Evicted: len(s.records)}
	s.records = nil
	s.prints = nil
	s.seen = make(map[uint64]int)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.cfg.logger.Printf("🧹 store: reset, %d records dropped", change.Evicted)
	notify(subs, change)
}

// ============================================================================
// READ
// ============================================================================

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// View returns a snapshot of the current records.
func (s *Store) View() engine.RecordView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return engine.NewSliceView(append([]record.Flat(nil), s.records...))
}

// Fields describes the fields of the current records.
func (s *Store) Fields() *schema.Config {
	return schema.Discover(s.View(), schema.DiscoverOptions{})
}

// Execute runs q against a snapshot of the current records.
func (s *Store) Execute(q engine.Query, opts ...engine.Option) (*engine.Result, error) {
	return engine.Execute(q, s.View(), opts...)
}

// ============================================================================
// SUBSCRIPTIONS
// ============================================================================

// Subscribe registers fn to run after every ingest or reset. fn runs on the
// mutating goroutine, outside the store lock. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) subscribersLocked() []func(Change) {
	subs := make([]func(Change), 0, len(s.subscribers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subscribers[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func notify(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}

// ============================================================================
// FINGERPRINT
// ============================================================================

// Fingerprint hashes a flat record's keys, kinds and values. Key order
// does not matter.
func Fingerprint(flat record.Flat) uint64 {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		// Only returned for a key that is not 32 bytes long.
		panic(err)
	}
	for _, key := range flat.Keys() {
		v := flat[key]
		io.WriteString(h, key)
		h.Write([]byte{0, byte(v.Kind()), 0})
		io.WriteString(h, v.String())
		h.Write([]byte{0x1e})
	}
	return h.Sum64()
}
