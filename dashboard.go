package backoffice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSource provides the independent read operations the dashboard
// aggregates. [internal/content.Store] is the production implementation.
type DashboardSource interface {
	// Essential reads: a failure in either aborts the whole aggregation.
	ContactCount(ctx context.Context) (int64, error)
	CaseStudyCount(ctx context.Context) (int64, error)

	// Optional reads: a failure degrades only the one figure.
	TestimonialCount(ctx context.Context) (int64, error)
	TeamMemberCount(ctx context.Context) (int64, error)
	PublishedPostCount(ctx context.Context) (int64, error)
	SubscriberCount(ctx context.Context) (int64, error)
	QuarterRevenue(ctx context.Context) (decimal.Decimal, error)
}

// DashboardReport is the aggregated admin dashboard payload. Degraded lists
// the optional figures that failed and were zeroed; it is empty on a fully
// healthy aggregation.
type DashboardReport struct {
	Contacts       int64           `json:"contacts"`
	CaseStudies    int64           `json:"case_studies"`
	Testimonials   int64           `json:"testimonials"`
	TeamMembers    int64           `json:"team_members"`
	PublishedPosts int64           `json:"published_posts"`
	Subscribers    int64           `json:"subscribers"`
	QuarterRevenue decimal.Decimal `json:"quarter_revenue"`
	Degraded       []string        `json:"degraded,omitempty"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Dashboard aggregates figures from a [DashboardSource] with two failure
// policies: essential reads are fail-fast for the whole response, optional
// reads degrade per-figure to zero. One slow or broken optional source must
// never block the dashboard, so optional reads run concurrently under an
// individual timeout.
type Dashboard struct {
	source DashboardSource
	cfg    DashboardConfig
	logger *slog.Logger
	clock  Clock
}

// NewDashboard creates a [Dashboard]. A nil logger selects [slog.Default];
// a nil clock selects [SystemClock].
func NewDashboard(source DashboardSource, cfg DashboardConfig, logger *slog.Logger) (*Dashboard, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: dashboard source required", ErrInvalidConfig)
	}
	if cfg.OptionalReadTimeout < 0 {
		return nil, fmt.Errorf("%w: Dashboard OptionalReadTimeout cannot be negative", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dashboard{
		source: source,
		cfg:    cfg,
		logger: logger,
		clock:  SystemClock(),
	}, nil
}

type optionalRead struct {
	name string
	run  func(ctx context.Context, report *DashboardReport) error
}

// Load runs the aggregation. Essential reads run first and fail the call
// with [ErrBackendUnavailable]; optional failures are swallowed here —
// logged with [ErrPartialAggregation], zeroed in the report, and listed in
// Degraded — never surfaced as a request failure.
func (d *Dashboard) Load(ctx context.Context) (*DashboardReport, error) {
	report := &DashboardReport{
		QuarterRevenue: decimal.Zero,
		GeneratedAt:    d.clock.Now().UTC(),
	}

	contacts, err := d.source.ContactCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: contact count: %v", ErrBackendUnavailable, err)
	}
	report.Contacts = contacts

	caseStudies, err := d.source.CaseStudyCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: case study count: %v", ErrBackendUnavailable, err)
	}
	report.CaseStudies = caseStudies

	reads := []optionalRead{
		{name: "testimonials", run: func(ctx context.Context, r *DashboardReport) error {
			n, err := d.source.TestimonialCount(ctx)
			r.Testimonials = n
			return err
		}},
		{name: "team_members", run: func(ctx context.Context, r *DashboardReport) error {
			n, err := d.source.TeamMemberCount(ctx)
			r.TeamMembers = n
			return err
		}},
		{name: "published_posts", run: func(ctx context.Context, r *DashboardReport) error {
			n, err := d.source.PublishedPostCount(ctx)
			r.PublishedPosts = n
			return err
		}},
		{name: "subscribers", run: func(ctx context.Context, r *DashboardReport) error {
			n, err := d.source.SubscriberCount(ctx)
			r.Subscribers = n
			return err
		}},
		{name: "quarter_revenue", run: func(ctx context.Context, r *DashboardReport) error {
			v, err := d.source.QuarterRevenue(ctx)
			r.QuarterRevenue = v
			return err
		}},
	}

	// Each optional read writes a distinct field, so the shared report needs
	// no lock during the fan-out; only the error slots are per-read.
	errs := make([]error, len(reads))
	var wg sync.WaitGroup
	for i, read := range reads {
		wg.Add(1)
		go func(i int, read optionalRead) {
			defer wg.Done()

			readCtx := ctx
			if d.cfg.OptionalReadTimeout > 0 {
				var cancel context.CancelFunc
				readCtx, cancel = context.WithTimeout(ctx, d.cfg.OptionalReadTimeout)
				defer cancel()
			}

			errs[i] = read.run(readCtx, report)
		}(i, read)
	}
	wg.Wait()

	for i, read := range reads {
		if errs[i] == nil {
			continue
		}
		report.Degraded = append(report.Degraded, read.name)
		d.zeroFigure(report, read.name)
		d.logger.Warn("dashboard figure degraded",
			"figure", read.name,
			"reason", errs[i].Error(),
		)
	}
	if len(report.Degraded) > 0 {
		d.logger.Warn("dashboard aggregation degraded",
			"error", ErrPartialAggregation.Error(),
			"figures", report.Degraded,
		)
	}

	return report, nil
}

func (d *Dashboard) zeroFigure(report *DashboardReport, name string) {
	switch name {
	case "testimonials":
		report.Testimonials = 0
	case "team_members":
		report.TeamMembers = 0
	case "published_posts":
		report.PublishedPosts = 0
	case "subscribers":
		report.Subscribers = 0
	case "quarter_revenue":
		report.QuarterRevenue = decimal.Zero
	}
}
