package repo

import (
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/machinist/internal/kv"
)

// Key prefixes for the storage layout. The by-name and by-hash prefixes are
// two indexes into logically the same immutable schematic value.
const (
	schematicByNamePrefix = "Schematics/"
	schematicByHashPrefix = "MachineSchematics/"
	machinePrefix         = "Machines/"
)

func schematicNameKey(name string) string { return schematicByNamePrefix + name }
func schematicHashKey(hash string) string { return schematicByHashPrefix + hash }
func machineKey(id string) string         { return machinePrefix + id }

// Repository persists schematics and machine status records in a kv.Store.
// Safe for concurrent use; all coordination is delegated to the store.
type Repository struct {
	store  kv.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger for debug-level operation traces.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithClock overrides the time source used for UpdatedTime stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides machine id generation. Generated ids must be
// unique with overwhelming probability; the default is a random UUID.
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

// New constructs a Repository over the given store.
func New(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
