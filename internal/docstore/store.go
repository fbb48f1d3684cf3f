package docstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/maruel/ksid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maruel/plugindata/internal/errors"
	"github.com/maruel/plugindata/internal/location"
)

// DefaultAutoSaveInterval is the autosave period used by [Initialize].
const DefaultAutoSaveInterval = time.Second

// Store is a JSON document bound to one backing file.
type Store struct {
	id      ksid.ID
	codec   Codec
	kind    location.Kind
	owner   location.Owner
	name    string
	path    string
	log     *slog.Logger
	metrics *metrics

	mu  sync.RWMutex
	doc *document

	// saveMu orders file writes so they land in snapshot order.
	saveMu sync.Mutex

	autoSave *autoSaver
}

// Option configures a Store built by [New].
type Option func(*options)

type options struct {
	codec    Codec
	interval time.Duration
	logger   *slog.Logger
	onError  func(error)
	reg      prometheus.Registerer
}

// WithCodec overrides [DefaultCodec].
func WithCodec(c Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithAutoSave saves the document every interval. Zero disables autosave.
func WithAutoSave(interval time.Duration) Option {
	return func(o *options) { o.interval = interval }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithErrorHandler is called once with the error that stopped autosave.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithMetrics registers the store collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// Initialize creates a Store with the default codec and, when autoSave is
// set, saves it every [DefaultAutoSaveInterval] for the life of the process.
func Initialize(owner location.Owner, name string, kind location.Kind, autoSave bool) (*Store, error) {
	var opts []Option
	if autoSave {
		opts = append(opts, WithAutoSave(DefaultAutoSaveInterval))
	}
	return New(context.Background(), owner, name, kind, opts...)
}

// New creates a Store for <dir>/<name>.json and loads it.
//
// The autosave loop, if any, runs until ctx is cancelled.
func New(ctx context.Context, owner location.Owner, name string, kind location.Kind, opts ...Option) (*Store, error) {
	o := options{codec: DefaultCodec()}
	for _, opt := range opts {
		opt(&o)
	}
	if owner == nil {
		return nil, errors.BadArgument("owner is required")
	}
	if !reflect.TypeOf(owner).Comparable() {
		return nil, errors.BadArgument(fmt.Sprintf("owner type %T is not comparable", owner))
	}
	if name == "" {
		return nil, errors.BadArgument("database name is required")
	}
	dir, err := location.Resolve(kind, owner)
	if err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	s := &Store{
		id:    ksid.NewID(),
		codec: o.codec,
		kind:  kind,
		owner: owner,
		name:  name,
		path:  filepath.Join(dir, name+".json"),
		doc:   newDocument(),
	}
	s.log = o.logger.With("store", s.id.String(), "db", name)
	if o.reg != nil {
		if s.metrics, err = newMetrics(o.reg); err != nil {
			return nil, err
		}
	}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("failed to load JSON data from %s: %w", s.path, err)
	}
	if o.interval > 0 {
		s.startAutoSave(ctx, o.interval, o.onError)
	}
	return s, nil
}

// Get decodes the value at key into T.
//
// ok is false when key is absent. A stored null decodes to the zero value when
// T is a pointer, map, slice or interface; for any other T it is a
// deserialization error, as is any shape mismatch. On error the document is
// unchanged and the other results are zero.
func Get[T any](s *Store, key string) (v T, ok bool, err error) {
	raw, ok := s.GetRaw(key)
	if !ok {
		return v, false, nil
	}
	typ := reflect.TypeFor[T]()
	if isNull(raw) {
		if !nullable(typ) {
			return v, false, errors.Deserialization(key, typ.String(), fmt.Errorf("null is not a valid %s", typ))
		}
		return v, true, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false, errors.Deserialization(key, typ.String(), err)
	}
	return v, true, nil
}

func nullable(t reflect.Type) bool {
	switch t.Kind() { //nolint:exhaustive // Everything else rejects null.
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	default:
		return false
	}
}

// GetRaw returns the JSON text stored at key.
func (s *Store) GetRaw(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.doc.Get(key)
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), raw...), true
}

// Set stores value at key, replacing any previous value. A nil value is
// stored as JSON null.
//
// A key that is not valid UTF-8 or a value that cannot be encoded as JSON is
// rejected and the document is left unchanged.
func (s *Store) Set(key string, value any) error {
	if !utf8.ValidString(key) {
		return errors.Serialization(key, stderrors.New("key is not valid UTF-8"))
	}
	raw, err := s.codec.encode(value)
	if err != nil {
		return errors.Serialization(key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Set(key, raw)
	return nil
}

// Exists reports whether key is present, including when its value is null.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doc.Get(key)
	return ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Delete(key)
}

// Clear empties the document. The file is untouched until the next Save.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = newDocument()
}

// Keys returns the keys in document order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, s.doc.Len())
	for p := s.doc.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Len()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Name returns the database name.
func (s *Store) Name() string {
	return s.name
}

// Kind returns the location kind.
func (s *Store) Kind() location.Kind {
	return s.kind
}

// Owner returns the owner the store is bound to.
func (s *Store) Owner() location.Owner {
	return s.owner
}

// Codec returns the codec configuration.
func (s *Store) Codec() Codec {
	return s.codec
}

// Equal reports whether both stores have the same binding: codec, location
// kind, owner and database name. Document contents are not compared.
func (s *Store) Equal(other *Store) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.codec == other.codec && s.kind == other.kind && s.owner == other.owner && s.name == other.name
}

func (s *Store) String() string {
	return fmt.Sprintf("Store{codec=%+v, location=%s, owner=%s, database=%q}", s.codec, s.kind, s.owner.Name(), s.name)
}

// MarshalJSON encodes the current document with the store codec.
func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codec.encodeDocument(s.doc)
}
