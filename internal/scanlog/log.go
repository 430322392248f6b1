package scanlog

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mssola/useragent"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

// DefaultLimit caps listings when the caller does not ask for a size.
const DefaultLimit = 100

// maxUserAgent truncates pathological headers before they are stored.
const maxUserAgent = 512

// Store is the append-only event storage. ListScans returns newest first; an
// empty code lists every code.
type Store interface {
	AppendScan(ctx context.Context, event domain.ScanEvent) error
	ListScans(ctx context.Context, code string, limit int) ([]domain.ScanEvent, error)
	CountScans(ctx context.Context) (int64, error)
}

// Inventory is what the admin overview counts besides scans.
type Inventory interface {
	ListCodes(ctx context.Context) ([]domain.ScannableCode, error)
	ListOwners(ctx context.Context) ([]string, error)
}

// Log records every resolution attempt of a code.
type Log struct {
	store  Store
	logger logger.Logger
	now    func() time.Time
}

// New creates a scan log over store.
func New(store Store, log logger.Logger) *Log {
	return &Log{store: store, logger: log, now: time.Now}
}

// Append records one scan of code. It is called whether or not the code
// turns out to be bound.
func (l *Log) Append(ctx context.Context, code, userAgent string) (domain.ScanEvent, error) {
	userAgent = truncate(userAgent, maxUserAgent)
	now := l.now().UTC()
	event := domain.ScanEvent{
		ID:        newEventID(now),
		Code:      code,
		ScannedAt: now,
		UserAgent: userAgent,
	}
	if err := l.store.AppendScan(ctx, event); err != nil {
		return domain.ScanEvent{}, fmt.Errorf("failed to append scan event: %w", err)
	}
	l.logger.Debug("scan recorded",
		logger.String("code", code),
		logger.String("id", event.ID))
	return event, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// List returns the latest scans of code, newest first.
func (l *Log) List(ctx context.Context, code string, limit int) ([]domain.ScanEvent, error) {
	if err := domain.ValidateCode(code); err != nil {
		return nil, err
	}
	return l.store.ListScans(ctx, code, clampLimit(limit))
}

// All returns the latest scans across every code, newest first.
func (l *Log) All(ctx context.Context, limit int) ([]domain.ScanEvent, error) {
	return l.store.ListScans(ctx, "", clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 10*DefaultLimit {
		return DefaultLimit
	}
	return limit
}

// Client is the analytics view of a scanning user agent.
type Client struct {
	Browser string `json:"browser"`
	Version string `json:"version,omitempty"`
	OS      string `json:"os"`
	Mobile  bool   `json:"mobile"`
	Bot     bool   `json:"bot"`
}

// Describe classifies the user agent of an event.
func Describe(event domain.ScanEvent) Client {
	if event.UserAgent == "" {
		return Client{Browser: "unknown", OS: "unknown"}
	}
	ua := useragent.New(event.UserAgent)
	name, version := ua.Browser()
	c := Client{
		Browser: name,
		Version: version,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
	if c.Browser == "" {
		c.Browser = "unknown"
	}
	if c.OS == "" {
		c.OS = "unknown"
	}
	return c
}

// DescribedEvent pairs an event with its client classification.
type DescribedEvent struct {
	domain.ScanEvent
	Client Client `json:"client"`
}

// DescribeAll annotates a listing for the analytics view.
func DescribeAll(events []domain.ScanEvent) []DescribedEvent {
	out := make([]DescribedEvent, 0, len(events))
	for _, e := range events {
		out = append(out, DescribedEvent{ScanEvent: e, Client: Describe(e)})
	}
	return out
}

// Overview is the admin dashboard summary.
type Overview struct {
	TotalCodes  int   `json:"total_codes"`
	LinkedCodes int   `json:"linked_codes"`
	TotalScans  int64 `json:"total_scans"`
	TotalOwners int   `json:"total_owners"`
}

// Overview counts live codes, bound codes, scans and owners with a directory
// or a bound code.
func (l *Log) Overview(ctx context.Context, inv Inventory) (Overview, error) {
	codes, err := inv.ListCodes(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to count codes: %w", err)
	}
	owners, err := inv.ListOwners(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to count owners: %w", err)
	}
	scans, err := l.store.CountScans(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to count scans: %w", err)
	}

	seen := make(map[string]bool, len(owners))
	for _, o := range owners {
		seen[o] = true
	}

	var ov Overview
	for _, c := range codes {
		if c.Deleted {
			continue
		}
		ov.TotalCodes++
		if c.Bound() {
			ov.LinkedCodes++
			seen[c.OwnerID] = true
		}
	}
	ov.TotalScans = scans
	ov.TotalOwners = len(seen)
	return ov, nil
}
