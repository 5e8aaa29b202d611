package panel

import (
	"context"
	"errors"
	"fmt"
	"imagestudio/internal/entity"
	"imagestudio/internal/model"
	"imagestudio/internal/storage"
	"imagestudio/internal/utils"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	PageSize        = 6
	TimestampLayout = "2006-01-02 15:04:05"
)

var ErrRecordNotFound = errors.New("history record not found")

// Detail is the expanded view of one record.
type Detail struct {
	Record             entity.HistoryRecord
	FormattedTimestamp string
}

// Gallery pages through the history, newest first. The current page is always
// within [1, max(1, TotalPages())].
type Gallery struct {
	history    model.HistoryStore
	exporter   storage.Storage
	publicBase string
	httpClient *http.Client
	location   *time.Location

	mu      sync.Mutex
	records []entity.HistoryRecord
	page    int
}

type GalleryOption func(*Gallery)

// WithExporter sets the download destination. publicBase, when set, turns
// saved keys into URLs.
func WithExporter(exporter storage.Storage, publicBase string) GalleryOption {
	return func(g *Gallery) {
		g.exporter = exporter
		g.publicBase = publicBase
	}
}

func WithHTTPClient(client *http.Client) GalleryOption {
	return func(g *Gallery) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithLocation sets the zone used for formatted timestamps.
func WithLocation(loc *time.Location) GalleryOption {
	return func(g *Gallery) {
		if loc != nil {
			g.location = loc
		}
	}
}

func NewGallery(history model.HistoryStore, opts ...GalleryOption) *Gallery {
	g := &Gallery{
		history:    history,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		location:   time.Local,
		page:       1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Refresh reloads the history and clamps the current page.
func (g *Gallery) Refresh(ctx context.Context) error {
	records, err := g.history.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = records
	g.page = clampPage(g.page, totalPages(len(records)))
	return nil
}

// Len returns the number of loaded records.
func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

func (g *Gallery) TotalPages() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return totalPages(len(g.records))
}

func (g *Gallery) CurrentPage() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.page
}

// Meta describes the current page.
func (g *Gallery) Meta() entity.Meta {
	g.mu.Lock()
	defer g.mu.Unlock()
	return entity.Meta{
		Page:       int64(g.page),
		PageSize:   PageSize,
		Total:      int64(len(g.records)),
		TotalPages: int64(totalPages(len(g.records))),
	}
}

// Page returns the records shown on the current page.
func (g *Gallery) Page() []entity.HistoryRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	start, end := g.bounds()
	out := make([]entity.HistoryRecord, end-start)
	copy(out, g.records[start:end])
	return out
}

func (g *Gallery) Next() int { return g.move(1) }
func (g *Gallery) Prev() int { return g.move(-1) }

// Goto jumps to page n, clamped to the valid range.
func (g *Gallery) Goto(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.page = clampPage(n, totalPages(len(g.records)))
	return g.page
}

func (g *Gallery) move(delta int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.page = clampPage(g.page+delta, totalPages(len(g.records)))
	return g.page
}

// Select finds a record by ID among all loaded records.
func (g *Gallery) Select(id string) (*Detail, error) {
	id = strings.TrimSpace(id)
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, record := range g.records {
		if record.ID != "" && record.ID == id {
			return g.detail(record), nil
		}
	}
	return nil, ErrRecordNotFound
}

// SelectIndex picks the i-th record (0-based) of the current page.
func (g *Gallery) SelectIndex(i int) (*Detail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	start, end := g.bounds()
	if i < 0 || start+i >= end {
		return nil, ErrRecordNotFound
	}
	return g.detail(g.records[start+i]), nil
}

// Download fetches the image and writes it to the export destination as
// imagen-generada.<ext>. It returns where the file ended up. The history is
// not touched.
func (g *Gallery) Download(ctx context.Context, record entity.HistoryRecord) (string, error) {
	if g.exporter == nil {
		return "", errors.New("no export destination configured")
	}
	payload, err := utils.FetchImage(ctx, g.httpClient, record.ImageURL)
	if err != nil {
		return "", err
	}

	category := record.ID
	if strings.TrimSpace(category) == "" {
		category = fmt.Sprintf("%d", record.Timestamp.Unix())
	}
	key, err := g.exporter.Save(ctx, payload.Data, storage.SaveOptions{
		Category:     category,
		BaseName:     utils.DownloadBaseName,
		Extension:    payload.Ext,
		ContentType:  payload.MimeType,
		DownloadName: payload.Filename(),
		SkipIfExists: true,
	})
	if err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}

	location := storage.Location(g.exporter, g.publicBase, key)
	logrus.WithFields(logrus.Fields{
		"record_id": record.ID,
		"location":  location,
		"size":      len(payload.Data),
	}).Info("gallery_download_saved")
	return location, nil
}

func (g *Gallery) detail(record entity.HistoryRecord) *Detail {
	return &Detail{
		Record:             record,
		FormattedTimestamp: record.Timestamp.In(g.location).Format(TimestampLayout),
	}
}

// bounds must be called with mu held.
func (g *Gallery) bounds() (int, int) {
	start := (g.page - 1) * PageSize
	if start > len(g.records) {
		start = len(g.records)
	}
	end := start + PageSize
	if end > len(g.records) {
		end = len(g.records)
	}
	return start, end
}

func totalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}

func clampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}
