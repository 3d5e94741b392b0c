// Package controller owns the page flow: submitting credentials, running
// report generation in the background, ticker lookups and PDF download.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/form"
	"github.com/bobmcallan/genvest-portal/internal/models"
	"github.com/bobmcallan/genvest-portal/internal/session"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInFlight is returned when a session submits while a report is
	// still being generated.
	ErrInFlight = errors.New("a report is already being generated")
	// ErrNoReport is returned when downloading before any report exists.
	ErrNoReport = errors.New("no report to download")
	// ErrDownloadFailed wraps any PDF download failure.
	ErrDownloadFailed = errors.New("failed to download PDF")
)

// ReportClient is the backend the controller drives.
type ReportClient interface {
	GenerateReport(ctx context.Context, creds models.Credentials) (*models.Report, error)
	DownloadPDF(ctx context.Context, report *models.Report) ([]byte, error)
	SearchTickers(ctx context.Context, query string) ([]models.TickerSuggestion, error)
}

// Controller coordinates the client and the session store.
type Controller struct {
	client        ReportClient
	store         session.Store
	logger        *common.Logger
	timeout       time.Duration
	searchTimeout time.Duration

	lookups singleflight.Group
	wg      sync.WaitGroup

	// resultRetryDelay spaces the attempts to store a finished generation.
	resultRetryDelay time.Duration
}

const (
	resultWriteAttempts = 3
	// loadingGrace is how long past the generation timeout a loading flag
	// is still honoured. After that the session may submit again.
	loadingGrace = time.Minute
)

// New creates a Controller. timeout bounds a whole report generation and
// searchTimeout a single ticker lookup.
func New(client ReportClient, store session.Store, logger *common.Logger, timeout, searchTimeout time.Duration) *Controller {
	return &Controller{
		client:        client,
		store:         store,
		logger:        logger,
		timeout:       timeout,
		searchTimeout: searchTimeout,

		resultRetryDelay: 500 * time.Millisecond,
	}
}

// LoadingMessage is shown while a report for ticker is generated.
func LoadingMessage(ticker string) string {
	return fmt.Sprintf("⏳ Training model for %s...", strings.ToUpper(ticker))
}

// State returns the current page state for a session.
func (c *Controller) State(ctx context.Context, sessionID string) (session.State, error) {
	return c.store.Get(ctx, sessionID)
}

// Submit starts report generation. Incomplete credentials return
// form.ErrIncomplete and change nothing. A session that is already loading
// returns ErrInFlight, unless the loading flag outlived the generation
// timeout because its result could not be stored. Generation continues
// after ctx ends.
func (c *Controller) Submit(ctx context.Context, sessionID string, creds models.Credentials) error {
	if err := form.Validate(creds); err != nil {
		return err
	}

	_, err := c.store.Update(ctx, sessionID, func(st *session.State) error {
		if st.Loading && time.Since(st.LoadingSince) < c.timeout+loadingGrace {
			return ErrInFlight
		}
		st.Loading = true
		st.LoadingMessage = LoadingMessage(creds.Ticker)
		st.LoadingSince = time.Now()
		st.Form.Ticker = creds.Ticker
		st.Form.Reset()
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info().Str("session", shortID(sessionID)).Str("ticker", creds.Ticker).Msg("Report generation started")

	c.wg.Add(1)
	go c.generate(context.WithoutCancel(ctx), sessionID, creds)
	return nil
}

func (c *Controller) generate(ctx context.Context, sessionID string, creds models.Credentials) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	report, err := c.client.GenerateReport(ctx, creds)
	if err != nil {
		c.logger.Error().Str("session", shortID(sessionID)).Str("ticker", creds.Ticker).Err(err).Msg("Error generating report")
	} else {
		c.logger.Info().Str("session", shortID(sessionID)).Str("ticker", creds.Ticker).Dur("elapsed", time.Since(start)).Msg("Report generated")
	}

	c.storeResult(context.WithoutCancel(ctx), sessionID, report, err)
}

// storeResult clears the loading flag and keeps the report on success. The
// write is retried so a brief store outage does not leave the session
// loading.
func (c *Controller) storeResult(ctx context.Context, sessionID string, report *models.Report, genErr error) {
	var err error
	for attempt := 1; attempt <= resultWriteAttempts; attempt++ {
		// Each write gets its own deadline; the generation one may be spent.
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err = c.store.Update(writeCtx, sessionID, func(st *session.State) error {
			st.Loading = false
			st.LoadingMessage = ""
			st.LoadingSince = time.Time{}
			if genErr == nil {
				st.Report = report
			}
			return nil
		})
		cancel()
		if err == nil {
			return
		}

		c.logger.Warn().Str("session", shortID(sessionID)).Int("attempt", attempt).Err(err).Msg("Storing report generation result failed")
		if attempt < resultWriteAttempts {
			time.Sleep(time.Duration(attempt) * c.resultRetryDelay)
		}
	}
	c.logger.Error().Str("session", shortID(sessionID)).Err(err).Msg("Failed to store report generation result")
}

// Wait blocks until every background generation has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Input records new ticker text. When lookup is true the caller should run
// Lookup with the returned ticket.
func (c *Controller) Input(ctx context.Context, sessionID, ticker string) (ticket uint64, lookup bool, err error) {
	_, err = c.store.Update(ctx, sessionID, func(st *session.State) error {
		ticket, lookup = st.Form.Input(ticker)
		return nil
	})
	return ticket, lookup, err
}

// Lookup searches for query and applies the results under ticket. applied
// is false when newer input superseded the ticket; the results are then
// discarded. A failed search is logged and leaves the list as it was.
func (c *Controller) Lookup(ctx context.Context, sessionID string, ticket uint64, query string) (suggestions []models.TickerSuggestion, applied bool, err error) {
	results, serr := c.search(ctx, query)

	st, err := c.store.Update(ctx, sessionID, func(st *session.State) error {
		if serr != nil {
			return nil
		}
		applied = st.Form.Apply(ticket, results)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return st.Form.Visible(), applied, nil
}

// Search is Input followed by Lookup. stale reports that the results were
// not applied, either because a newer input arrived while the lookup was
// running or because the lookup failed; the page keeps its list either way.
func (c *Controller) Search(ctx context.Context, sessionID, query string) (suggestions []models.TickerSuggestion, stale bool, err error) {
	ticket, lookup, err := c.Input(ctx, sessionID, query)
	if err != nil {
		return nil, false, err
	}
	if !lookup {
		return []models.TickerSuggestion{}, false, nil
	}

	suggestions, applied, err := c.Lookup(ctx, sessionID, ticket, query)
	if err != nil {
		return nil, false, err
	}
	if suggestions == nil {
		suggestions = []models.TickerSuggestion{}
	}
	return suggestions, !applied, nil
}

// search collapses identical concurrent lookups into one backend call.
func (c *Controller) search(ctx context.Context, query string) ([]models.TickerSuggestion, error) {
	v, err, _ := c.lookups.Do(query, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.searchTimeout)
		defer cancel()
		return c.client.SearchTickers(sctx, query)
	})
	if err != nil {
		c.logger.Warn().Str("query", query).Err(err).Msg("Ticker search failed")
		return nil, err
	}
	return form.Top(v.([]models.TickerSuggestion)), nil
}

// Select puts symbol in the ticker field and closes the suggestion list.
func (c *Controller) Select(ctx context.Context, sessionID, symbol string) error {
	_, err := c.store.Update(ctx, sessionID, func(st *session.State) error {
		st.Form.Select(symbol)
		return nil
	})
	return err
}

// Download renders the session's current report as a PDF.
func (c *Controller) Download(ctx context.Context, sessionID string) ([]byte, error) {
	st, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Report == nil {
		return nil, ErrNoReport
	}

	pdf, err := c.client.DownloadPDF(ctx, st.Report)
	if err != nil {
		c.logger.Error().Str("session", shortID(sessionID)).Err(err).Msg("Error downloading PDF")
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	return pdf, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
