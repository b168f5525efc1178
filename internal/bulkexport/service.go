// Package bulkexport builds multi-entity report and transaction exports and
// stores them for download.
package bulkexport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"explorer/internal/csvexport"
	"explorer/internal/domain"
	"explorer/internal/infra"
	"explorer/pkg/zip"
)

const (
	keyPrefix = "exports"
	// retention bounds how long generated files stay on disk.
	retention = 24 * time.Hour
)

// Store is the subset of storage.FileStore the exporter writes through.
type Store interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	URL(key string) string
	Prune(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}

// Request is the JSON body of the bulk export endpoint.
type Request struct {
	Kind      string  `json:"kind"`
	EntityIDs []int64 `json:"entity_ids"`
	Filters   Filters `json:"filters"`
	Format    string  `json:"format,omitempty"`
}

type Filters struct {
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
}

// Result describes a stored export file.
type Result struct {
	RecordCount int    `json:"record_count"`
	EntityCount int    `json:"entity_count"`
	SizeBytes   int    `json:"size_bytes"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
}

// Format is the container of a bulk export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	// FormatZIP packs one CSV per entity.
	FormatZIP Format = "zip"
)

type params struct {
	kind      domain.ExportKind
	entityIDs []int64
	filters   domain.ExportFilters
	format    Format
}

// Service validates export requests, runs the export query and stores the file.
type Service struct {
	repo        domain.ExportRepository
	store       Store
	maxEntities int
	log         infra.Logger
	now         func() time.Time
	newID       func() string
}

func NewService(repo domain.ExportRepository, store Store, maxEntities int, log infra.Logger) *Service {
	if maxEntities <= 0 {
		maxEntities = 250
	}
	return &Service{
		repo:        repo,
		store:       store,
		maxEntities: maxEntities,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Export runs one bulk export. Validation failures wrap domain.ErrInvalidExport.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	p, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	table, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}

	stamp := s.now().UTC()
	base := fmt.Sprintf("%s_%s", p.kind, stamp.Format("20060102-150405"))
	data, filename, err := encode(p.format, base, table, stamp)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key, err := s.store.Write(ctx, fmt.Sprintf("%s/%s/%s", keyPrefix, s.newID(), filename), data)
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	if n, err := s.store.Prune(ctx, keyPrefix, stamp.Add(-retention)); err != nil {
		s.log.Warn().Err(err).Msg("prune exports")
	} else if n > 0 {
		s.log.Debug().Int("removed", n).Msg("pruned expired exports")
	}

	s.log.Info().
		Str("kind", string(p.kind)).
		Str("format", string(p.format)).
		Int("entities", len(p.entityIDs)).
		Int("records", len(table.rows)).
		Str("key", key).
		Msg("bulk export stored")

	return &Result{
		RecordCount: len(table.rows),
		EntityCount: len(p.entityIDs),
		SizeBytes:   len(data),
		URL:         s.store.URL(key),
		Filename:    filename,
	}, nil
}

func (s *Service) validate(req Request) (params, error) {
	var p params

	switch domain.ExportKind(strings.ToLower(strings.TrimSpace(req.Kind))) {
	case domain.ExportReports:
		p.kind = domain.ExportReports
	case domain.ExportTransactions:
		p.kind = domain.ExportTransactions
	default:
		return p, invalid("kind must be reports or transactions")
	}

	ids := make([]int64, 0, len(req.EntityIDs))
	for _, id := range req.EntityIDs {
		if id <= 0 || id > math.MaxInt32 {
			return p, invalid("entity_ids must be positive integers")
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return p, invalid("at least one entity id is required")
	}
	if len(ids) > s.maxEntities {
		return p, invalid(fmt.Sprintf("at most %d entities per export", s.maxEntities))
	}
	p.entityIDs = ids

	var err error
	if p.filters.DateFrom, err = parseDate(req.Filters.DateFrom); err != nil {
		return p, invalid("date_from must be YYYY-MM-DD")
	}
	if p.filters.DateTo, err = parseDate(req.Filters.DateTo); err != nil {
		return p, invalid("date_to must be YYYY-MM-DD")
	}
	if !p.filters.DateFrom.IsZero() && !p.filters.DateTo.IsZero() && p.filters.DateFrom.After(p.filters.DateTo) {
		return p, invalid("date_from must not be after date_to")
	}

	switch Format(strings.ToLower(strings.TrimSpace(req.Format))) {
	case "", FormatCSV:
		p.format = FormatCSV
	case FormatXLSX:
		p.format = FormatXLSX
	case FormatZIP:
		p.format = FormatZIP
	default:
		return p, invalid("format must be csv, xlsx or zip")
	}
	return p, nil
}

type table struct {
	cols []csvexport.Column
	rows []csvexport.Row
	// byEntity keeps the entity of each row, in row order, for per-entity archives.
	byEntity []int64
}

func (s *Service) load(ctx context.Context, p params) (table, error) {
	switch p.kind {
	case domain.ExportReports:
		items, err := s.repo.ExportReports(ctx, p.entityIDs, p.filters)
		if err != nil {
			return table{}, err
		}
		t := table{cols: csvexport.ReportColumns, rows: csvexport.ReportRows(items)}
		for _, it := range items {
			t.byEntity = append(t.byEntity, it.EntityID)
		}
		return t, nil
	default:
		items, err := s.repo.ExportTransactions(ctx, p.entityIDs, p.filters)
		if err != nil {
			return table{}, err
		}
		t := table{cols: csvexport.TransactionColumns, rows: csvexport.TransactionRows(items)}
		for _, it := range items {
			t.byEntity = append(t.byEntity, it.EntityID)
		}
		return t, nil
	}
}

func encode(format Format, base string, t table, stamp time.Time) ([]byte, string, error) {
	switch format {
	case FormatXLSX:
		data, err := csvexport.XLSXBytes(t.cols, t.rows)
		return data, base + ".xlsx", err
	case FormatZIP:
		var entries []zip.Entry
		var order []int64
		groups := map[int64][]csvexport.Row{}
		for i, row := range t.rows {
			id := t.byEntity[i]
			if _, ok := groups[id]; !ok {
				order = append(order, id)
			}
			groups[id] = append(groups[id], row)
		}
		for _, id := range order {
			entries = append(entries, zip.Entry{
				Filename: fmt.Sprintf("entity-%d.csv", id),
				Modified: stamp,
				Data:     csvexport.Bytes(t.cols, groups[id]),
			})
		}
		data, err := zip.Archive(entries)
		return data, base + ".zip", err
	default:
		return csvexport.Bytes(t.cols, t.rows), base + ".csv", nil
	}
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidExport, msg)
}

// IsInvalid reports whether err is a request validation failure.
func IsInvalid(err error) bool {
	return errors.Is(err, domain.ErrInvalidExport)
}
