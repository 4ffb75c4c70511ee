// Package collector is the store pass of the fetch job. It searches every
// (food type, region) cell on Google Places, fetches details for new
// candidates and merges them into the stores CSV.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/config"
	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/places"
	"github.com/garyellow/taichung-eats-linebot/internal/scraper"
	"github.com/garyellow/taichung-eats-linebot/internal/storage"
)

// Centroid is the search center of a region.
type Centroid struct {
	Region string
	Center places.LatLng
}

// Centroids lists one search center per catalog region, in region order.
var Centroids = []Centroid{
	{Region: "西區", Center: places.LatLng{Latitude: 24.1417, Longitude: 120.6630}},
	{Region: "北區", Center: places.LatLng{Latitude: 24.1588, Longitude: 120.6821}},
	{Region: "南屯區", Center: places.LatLng{Latitude: 24.1375, Longitude: 120.6150}},
}

// PlacesAPI is the part of places.Client the store pass uses.
type PlacesAPI interface {
	SearchNearby(ctx context.Context, query string, center places.LatLng) ([]places.Place, error)
	GetDetails(ctx context.Context, placeID string) (places.Details, error)
}

// DetailsCache remembers details answers between runs.
type DetailsCache interface {
	GetPlaceDetails(ctx context.Context, placeID string) (*storage.PlaceDetails, error)
	SavePlaceDetails(ctx context.Context, d *storage.PlaceDetails) error
}

// Stats summarizes one run.
type Stats struct {
	Cells        int // searches issued
	SkippedCells int // searches that hit the quota or an HTTP error
	Candidates   int // unique place IDs found
	CacheHits    int
	Collected    int // rows built from details
	Added        int // rows new to the stores file
	Total        int // rows written
}

// Collector runs the store pass.
type Collector struct {
	api       PlacesAPI
	cache     DetailsCache
	foodTypes []string
	centroids []Centroid
	delay     time.Duration
	logger    *logger.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithCache enables the details cache.
func WithCache(c DetailsCache) Option {
	return func(col *Collector) { col.cache = c }
}

// WithDelay overrides the pause after each details call.
func WithDelay(d time.Duration) Option {
	return func(col *Collector) { col.delay = d }
}

// WithGrid replaces the searched food types and regions.
func WithGrid(foodTypes []string, centroids []Centroid) Option {
	return func(col *Collector) {
		col.foodTypes = foodTypes
		col.centroids = centroids
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(col *Collector) { col.logger = l.WithModule("collector") }
}

// New creates a collector over the full catalog grid.
func New(api PlacesAPI, opts ...Option) *Collector {
	c := &Collector{
		api:       api,
		foodTypes: catalog.FoodTypes,
		centroids: Centroids,
		delay:     config.DetailFetchDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.NewWithWriter("error", io.Discard)
	}
	return c
}

// Collect searches every cell and returns one row per unique place.
//
// A cell whose search is over quota or rejected with an HTTP status is
// skipped; the same goes for a single details call. A request that never
// got a response aborts the run.
func (c *Collector) Collect(ctx context.Context) ([]catalog.StoreRecord, Stats, error) {
	var stats Stats
	seen := make(map[string]struct{})
	var rows []catalog.StoreRecord

	for _, foodType := range c.foodTypes {
		for _, cell := range c.centroids {
			log := c.logger.WithField("food_type", foodType).WithField("region", cell.Region)
			log.Info("Searching")

			stats.Cells++
			hits, err := c.api.SearchNearby(ctx, foodType, cell.Center)
			if err != nil {
				if skippable(err) {
					stats.SkippedCells++
					log.WithError(err).Warn("Search skipped")
					continue
				}
				return rows, stats, fmt.Errorf("search %s @ %s: %w", foodType, cell.Region, err)
			}

			for _, hit := range hits {
				if _, dup := seen[hit.ID]; dup || hit.ID == "" {
					continue
				}
				seen[hit.ID] = struct{}{}
				stats.Candidates++

				row, cached, err := c.details(ctx, hit.ID)
				if err != nil {
					if skippable(err) {
						log.WithError(err).WithField("place_id", hit.ID).Warn("Details skipped")
						continue
					}
					return rows, stats, fmt.Errorf("details %s: %w", hit.ID, err)
				}
				if cached {
					stats.CacheHits++
				}
				row.Region = cell.Region
				row.FoodType = foodType
				rows = append(rows, row)
				stats.Collected++
			}
		}
	}
	return rows, stats, nil
}

// details returns the row fields of a place, from the cache when fresh.
func (c *Collector) details(ctx context.Context, placeID string) (catalog.StoreRecord, bool, error) {
	if c.cache != nil {
		hit, err := c.cache.GetPlaceDetails(ctx, placeID)
		if err != nil {
			c.logger.WithError(err).Warn("Details cache read failed")
		}
		if hit != nil {
			return catalog.StoreRecord{
				PlaceID: hit.PlaceID,
				Name:    hit.Name,
				Hours:   hit.Hours,
				Address: hit.Address,
				Phone:   hit.Phone,
			}, true, nil
		}
	}

	d, err := c.api.GetDetails(ctx, placeID)
	if sleepErr := scraper.Sleep(ctx, c.delay); sleepErr != nil && err == nil {
		err = sleepErr
	}
	if err != nil {
		return catalog.StoreRecord{}, false, err
	}

	row := catalog.StoreRecord{
		PlaceID: placeID,
		Name:    d.Name,
		Hours:   d.Hours(),
		Address: d.Address,
		Phone:   d.Phone,
	}
	if c.cache != nil {
		if err := c.cache.SavePlaceDetails(ctx, &storage.PlaceDetails{
			PlaceID: placeID,
			Name:    row.Name,
			Address: row.Address,
			Phone:   row.Phone,
			Hours:   row.Hours,
		}); err != nil {
			c.logger.WithError(err).Warn("Details cache write failed")
		}
	}
	return row, false, nil
}

// skippable reports errors that cost one cell or place but not the run.
func skippable(err error) bool {
	var statusErr *apperrors.HTTPStatusError
	return errors.Is(err, apperrors.ErrOverQuota) || errors.As(err, &statusErr)
}

// Merge appends the fresh rows that are not already in old. An old row with
// a place ID matches fresh rows by ID; an old row without one matches by
// the trimmed (name, region, address) triple. Old rows are kept unchanged.
func Merge(old, fresh []catalog.StoreRecord) (merged []catalog.StoreRecord, added int) {
	pids := make(map[string]struct{})
	triples := make(map[string]struct{})
	for _, r := range old {
		if pid := strings.TrimSpace(r.PlaceID); pid != "" {
			pids[pid] = struct{}{}
		} else {
			triples[r.Key()] = struct{}{}
		}
	}

	merged = append(merged, old...)
	for _, r := range fresh {
		if pid := strings.TrimSpace(r.PlaceID); pid != "" {
			if _, ok := pids[pid]; ok {
				continue
			}
			pids[pid] = struct{}{}
		} else {
			if _, ok := triples[r.Key()]; ok {
				continue
			}
			triples[r.Key()] = struct{}{}
		}
		merged = append(merged, r)
		added++
	}
	return merged, added
}

// Finalize normalizes regions and food types, then sorts rows by region,
// food type and name.
func Finalize(rows []catalog.StoreRecord) {
	for i := range rows {
		rows[i].Region = catalog.NormalizeRegion(rows[i].Region)
		rows[i].FoodType = strings.TrimSpace(rows[i].FoodType)
	}
	catalog.SortRecords(rows)
}

// Run collects, merges into the stores file at path and rewrites it
// atomically. A missing file counts as empty. When Collect aborts, the rows
// it returned are still merged and written before the error is returned.
func (c *Collector) Run(ctx context.Context, path string) (Stats, error) {
	old, err := loadExisting(path)
	if err != nil {
		return Stats{}, err
	}
	c.logger.WithField("path", path).WithField("rows", len(old)).Info("Loaded existing stores")

	fresh, stats, collectErr := c.Collect(ctx)
	if collectErr != nil && len(fresh) == 0 {
		return stats, collectErr
	}

	merged, added := Merge(old, fresh)
	Finalize(merged)
	stats.Added = added
	stats.Total = len(merged)

	if err := catalog.WriteFile(path, catalog.BaseColumns, merged); err != nil {
		return stats, errors.Join(collectErr, fmt.Errorf("write stores: %w", err))
	}
	log := c.logger.WithField("added", added).WithField("total", len(merged))
	if collectErr != nil {
		// Rows gathered before the abort are kept.
		log.WithError(collectErr).Warn("Partial stores written")
		return stats, collectErr
	}
	log.Info("Stores written")
	return stats, nil
}

func loadExisting(path string) ([]catalog.StoreRecord, error) {
	table, err := catalog.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stores: %w", err)
	}
	return table.Records, nil
}
