package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
)

// Source yields the raw bytes of a catalog file. Open returns an error
// wrapping apperrors.ErrNotFound when the source has nothing to offer.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a local catalog file.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string { return SourceFile }

// Open implements Source.
func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.Path, apperrors.ErrNotFound)
	}
	return f, err
}

// Source names reported by Catalog.Source.
const (
	SourceFile  = "file"
	SourceEmpty = "empty"
)

// Catalog is the read-only store table used while serving. Load fills it
// once; queries before a successful load see an empty table.
type Catalog struct {
	sources []Source
	cacheTo string
	log     *logger.Logger
	metrics *metrics.Metrics

	loadMu     sync.Mutex
	loaded     atomic.Bool
	table      atomic.Pointer[Table]
	sourceName atomic.Value // string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCacheFile writes bytes obtained from a non-file source to path so
// the next start can read them locally.
func WithCacheFile(path string) Option {
	return func(c *Catalog) { c.cacheTo = path }
}

// WithMetrics records load results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

// New creates a catalog that tries sources in order on Load.
func New(log *logger.Logger, sources []Source, opts ...Option) *Catalog {
	c := &Catalog{
		sources: sources,
		log:     log.WithModule("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromRecords returns an already loaded catalog. The column set is the
// enriched one.
func NewFromRecords(records []StoreRecord) *Catalog {
	c := &Catalog{}
	c.loaded.Store(true)
	c.table.Store(&Table{Columns: EnrichedColumns, Records: records})
	c.sourceName.Store("memory")
	return c
}

// NewFromTable returns an already loaded catalog over t.
func NewFromTable(t *Table) *Catalog {
	c := &Catalog{}
	c.loaded.Store(true)
	c.table.Store(t)
	c.sourceName.Store("memory")
	return c
}

// Load populates the table from the first source that yields a parsable
// file. It runs once per Catalog; later and concurrent calls return after
// the first load finishes. When every source fails the table stays empty
// and Load still returns nil.
func (c *Catalog) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.loaded.Load() {
		return nil
	}

	table, source := c.loadFirst(ctx)
	if table == nil {
		table, source = &Table{}, SourceEmpty
		c.log.Warn("No catalog source available; serving an empty catalog")
	}

	c.table.Store(table)
	c.sourceName.Store(source)
	c.loaded.Store(true)
	c.metrics.RecordCatalogLoad(source, len(table.Records))
	c.log.Info("Catalog loaded", "source", source, "records", len(table.Records))
	return nil
}

func (c *Catalog) loadFirst(ctx context.Context) (*Table, string) {
	for _, src := range c.sources {
		data, err := readSource(ctx, src)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.log.Debug("Catalog source empty", "source", src.Name())
			} else {
				c.log.WithError(err).Warn("Catalog source failed", "source", src.Name())
			}
			continue
		}

		table, err := ReadCSV(bytes.NewReader(data))
		if err != nil {
			c.log.WithError(err).Warn("Catalog source unparsable", "source", src.Name())
			continue
		}

		if c.cacheTo != "" && src.Name() != SourceFile {
			if err := WriteFileAtomic(c.cacheTo, func(w io.Writer) error {
				_, werr := w.Write(data)
				return werr
			}); err != nil {
				c.log.WithError(err).Warn("Failed to cache downloaded catalog", "path", c.cacheTo)
			}
		}
		return table, src.Name()
	}
	return nil, ""
}

func readSource(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func (c *Catalog) current() *Table {
	if t := c.table.Load(); t != nil {
		return t
	}
	return &Table{}
}

// Loaded reports whether Load has completed.
func (c *Catalog) Loaded() bool {
	return c.loaded.Load()
}

// Source returns the name of the source that filled the table.
func (c *Catalog) Source() string {
	if s, ok := c.sourceName.Load().(string); ok {
		return s
	}
	return ""
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.current().Records)
}

// Records returns a copy of all records in file order.
func (c *Catalog) Records() []StoreRecord {
	return append([]StoreRecord(nil), c.current().Records...)
}

// FindByName returns the first record whose name equals name exactly.
func (c *Catalog) FindByName(name string) (StoreRecord, bool) {
	t := c.current()
	if !t.HasColumns(ColName) {
		return StoreRecord{}, false
	}
	for _, r := range t.Records {
		if r.Name == name {
			return r, true
		}
	}
	return StoreRecord{}, false
}

// FindByCategoryAndRegion returns every record with the given food type and
// region, in file order. It returns nil when the table lacks either column.
func (c *Catalog) FindByCategoryAndRegion(category, region string) []StoreRecord {
	t := c.current()
	if !t.HasColumns(ColFoodType, ColRegion) {
		return nil
	}
	var out []StoreRecord
	for _, r := range t.Records {
		if r.FoodType == category && r.Region == region {
			out = append(out, r)
		}
	}
	return out
}

// FindByPlaceID returns the record carrying the given Places ID.
func (c *Catalog) FindByPlaceID(placeID string) (StoreRecord, bool) {
	if placeID == "" {
		return StoreRecord{}, false
	}
	for _, r := range c.current().Records {
		if r.PlaceID == placeID {
			return r, true
		}
	}
	return StoreRecord{}, false
}

// FindByNamePrefix returns the first record whose name starts with prefix.
// Postback data of long names without a place ID carries a shortened name.
func (c *Catalog) FindByNamePrefix(prefix string) (StoreRecord, bool) {
	t := c.current()
	if prefix == "" || !t.HasColumns(ColName) {
		return StoreRecord{}, false
	}
	for _, r := range t.Records {
		if strings.HasPrefix(r.Name, prefix) {
			return r, true
		}
	}
	return StoreRecord{}, false
}
