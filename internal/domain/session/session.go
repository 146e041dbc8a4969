package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dealscout/dealscout/internal/domain/catalog"
	apperrors "github.com/dealscout/dealscout/pkg/errors"
)

// Phase is the externally visible state of a session.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseReady       Phase = "ready"
	PhaseLoadingMore Phase = "loadingMore"
	PhaseDetail      Phase = "detail"
)

// user-facing error messages; one category per call site, the underlying
// cause only goes to the log
const (
	searchErrMessage = "Failed to fetch product data. The AI might be busy, please try again."
	moreErrMessage   = "Failed to load more products. Please try again."
	detailErrMessage = "Failed to fetch product details."
)

// View is an immutable snapshot of session state for rendering. Products
// holds the filtered and sorted subset; TotalResults counts the full
// unfiltered result set.
type View struct {
	SessionID      string                  `json:"sessionId"`
	Query          string                  `json:"query"`
	DebouncedQuery string                  `json:"debouncedQuery"`
	Phase          Phase                   `json:"phase"`
	Products       []catalog.Product       `json:"products"`
	TotalResults   int                     `json:"totalResults"`
	Filters        catalog.FilterOptions   `json:"filters"`
	Loading        bool                    `json:"loading"`
	LoadingMore    bool                    `json:"loadingMore"`
	Error          string                  `json:"error,omitempty"`
	Selected       *catalog.Product        `json:"selected,omitempty"`
	Detail         *catalog.ProductDetails `json:"detail,omitempty"`
	DetailLoading  bool                    `json:"detailLoading"`
	DetailError    string                  `json:"detailError,omitempty"`
}

// Session owns the search state machine for one user: debounced query
// propagation, the unfiltered result set, pagination, selection, and the
// detail fetch lifecycle. All completions are tagged with a generation so
// a superseded call can never commit stale state.
type Session struct {
	ID        string
	CreatedAt time.Time

	gateway catalog.Gateway
	store   catalog.DetailStore
	logger  *slog.Logger

	debouncer *Debouncer
	flight    singleflight.Group

	baseCtx     context.Context
	teardown    context.CancelFunc
	callTimeout time.Duration

	mu             sync.Mutex
	closed         bool
	lastActive     time.Time
	query          string
	debouncedQuery string
	products       []catalog.Product
	filters        catalog.FilterOptions
	searching      bool
	loadingMore    bool
	err            string
	selected       *catalog.Product
	detail         *catalog.ProductDetails
	detailLoading  bool
	detailErr      string
	searchGen      uint64
	selectGen      uint64
	cancelSearch   context.CancelFunc
}

func newSession(id string, cfg Config, gateway catalog.Gateway, store catalog.DetailStore, logger *slog.Logger, now time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:          id,
		CreatedAt:   now,
		gateway:     gateway,
		store:       store,
		logger:      logger.With("component", "session", "session_id", id),
		baseCtx:     ctx,
		teardown:    cancel,
		callTimeout: cfg.CallTimeout,
		lastActive:  now,
		filters:     catalog.DefaultFilters(),
	}
	s.debouncer = NewDebouncer(cfg.DebounceInterval, s.applyDebouncedQuery)
	return s
}

// SetQuery feeds a raw query edit into the debouncer. Nothing happens
// until the value stabilizes for the quiet period.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = query
	s.touchLocked()
	s.mu.Unlock()
	s.debouncer.Input(query)
}

// Search applies a query immediately, bypassing the quiet period. Used
// for explicit submits.
func (s *Session) Search(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = query
	s.touchLocked()
	s.mu.Unlock()
	s.debouncer.Cancel()
	s.applyDebouncedQuery(query)
}

// applyDebouncedQuery is the debouncer sink: an empty stabilized value
// clears the result set without a remote call, anything else starts a
// fresh search. Selection is cleared whenever a new search begins.
func (s *Session) applyDebouncedQuery(raw string) {
	query := strings.TrimSpace(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.debouncedQuery = query
	s.clearSelectionLocked()

	if query == "" {
		s.searchGen++
		if s.cancelSearch != nil {
			s.cancelSearch()
			s.cancelSearch = nil
		}
		s.products = nil
		s.searching = false
		s.err = ""
		return
	}
	s.startSearchLocked(query)
}

// startSearchLocked issues the initial search for query. The previous
// in-flight search, if any, is canceled outright and its completion is
// additionally fenced off by the generation tag.
func (s *Session) startSearchLocked(query string) {
	s.searchGen++
	gen := s.searchGen
	if s.cancelSearch != nil {
		s.cancelSearch()
	}
	ctx, cancel := s.callContext()
	s.cancelSearch = cancel
	s.searching = true
	s.err = ""

	go func() {
		products, err := s.gateway.SearchProducts(ctx, query)
		cancel()
		if err == nil {
			if ierr := s.store.IncrementQuery(s.baseCtx, canonicalQuery(query), query); ierr != nil {
				s.logger.Warn("trending increment failed", "error", ierr)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.searchGen {
			return
		}
		s.searching = false
		s.cancelSearch = nil
		if err != nil {
			s.products = nil
			s.err = searchErrMessage
			s.logger.Error("search failed", "query", query, "error", err)
			return
		}
		s.products = catalog.MergeByID(nil, products)
		s.logger.Info("search completed", "query", query, "results", len(s.products))
	}()
}

// LoadMore appends a further batch for the current debounced query. The
// merged set is defensively de-duplicated by ID. On failure the existing
// results are kept and only the error message changes.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.Wrap(apperrors.CodeNotFound, "session closed", nil)
	}
	if s.loadingMore {
		s.mu.Unlock()
		return apperrors.Wrap(apperrors.CodeInvalidInput, "load more already in progress", nil)
	}
	query := s.debouncedQuery
	if query == "" {
		s.mu.Unlock()
		return apperrors.Wrap(apperrors.CodeInvalidInput, "no active query", nil)
	}
	gen := s.searchGen
	existingIDs := make([]string, 0, len(s.products))
	for _, p := range s.products {
		existingIDs = append(existingIDs, p.ID)
	}
	s.loadingMore = true
	s.err = ""
	s.touchLocked()
	s.mu.Unlock()

	more, err := s.gateway.FetchMoreProducts(ctx, query, existingIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingMore = false
	if s.closed || gen != s.searchGen {
		// A newer search replaced the result set; drop this batch.
		return nil
	}
	if err != nil {
		s.err = moreErrMessage
		s.logger.Error("load more failed", "query", query, "error", err)
		return err
	}
	s.products = catalog.MergeByID(s.products, more)
	s.logger.Info("load more completed", "query", query, "results", len(s.products))
	return nil
}

// Select enters the detail phase for the product with the given ID. The
// detail record comes from the cache when present; a miss triggers one
// remote fetch, collapsed per ID so concurrent selections of the same
// never-seen product share a single call. A newer selection supersedes a
// pending one.
func (s *Session) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.Wrap(apperrors.CodeNotFound, "session closed", nil)
	}
	var product catalog.Product
	found := false
	for _, p := range s.products {
		if p.ID == id {
			product = p
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return apperrors.Wrap(apperrors.CodeNotFound, "product not in current results", nil)
	}
	s.selectGen++
	gen := s.selectGen
	s.selected = &product
	s.detail = nil
	s.detailErr = ""
	s.detailLoading = true
	s.touchLocked()
	s.mu.Unlock()

	value, err, _ := s.flight.Do(product.ID, func() (any, error) {
		return s.loadDetails(ctx, product)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.selectGen {
		return nil
	}
	s.detailLoading = false
	if err != nil {
		s.detailErr = detailErrMessage
		s.logger.Error("detail fetch failed", "id", product.ID, "error", err)
		return err
	}
	details := value.(catalog.ProductDetails)
	s.detail = &details
	return nil
}

func (s *Session) loadDetails(ctx context.Context, product catalog.Product) (catalog.ProductDetails, error) {
	cached, ok, err := s.store.Get(ctx, product.ID)
	if err != nil {
		s.logger.Warn("detail cache lookup failed", "id", product.ID, "error", err)
	} else if ok {
		return cached, nil
	}
	details, err := s.gateway.FetchProductDetails(ctx, product)
	if err != nil {
		return catalog.ProductDetails{}, err
	}
	if err := s.store.Put(ctx, product.ID, details); err != nil {
		s.logger.Warn("detail cache save failed", "id", product.ID, "error", err)
	}
	return details, nil
}

// Back leaves the detail phase. The result set underneath is untouched.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.clearSelectionLocked()
	s.touchLocked()
}

// SetFilters replaces the filter configuration.
func (s *Session) SetFilters(opts catalog.FilterOptions) error {
	if opts.PriceRange.Min < 0 || opts.PriceRange.Max < opts.PriceRange.Min {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "price range is invalid", nil)
	}
	if opts.Rating < 0 || opts.Rating > 5 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "rating threshold must be within [0, 5]", nil)
	}
	if !opts.SortBy.Valid() {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "unknown sort mode", nil)
	}
	for _, p := range opts.Platforms {
		if !p.Valid() {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "unknown platform", nil)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperrors.Wrap(apperrors.CodeNotFound, "session closed", nil)
	}
	s.filters = opts
	s.touchLocked()
	return nil
}

// View returns a snapshot of the current state with the filter engine
// applied to the result set.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := View{
		SessionID:      s.ID,
		Query:          s.query,
		DebouncedQuery: s.debouncedQuery,
		Phase:          s.phaseLocked(),
		Products:       catalog.ApplyFilters(s.products, s.filters),
		TotalResults:   len(s.products),
		Filters:        s.filters,
		Loading:        s.searching,
		LoadingMore:    s.loadingMore,
		Error:          s.err,
		DetailLoading:  s.detailLoading,
		DetailError:    s.detailErr,
	}
	if s.selected != nil {
		selected := *s.selected
		view.Selected = &selected
	}
	if s.detail != nil {
		detail := *s.detail
		view.Detail = &detail
	}
	return view
}

// Close tears the session down: the debouncer stops, in-flight calls are
// canceled, and late completions are suppressed.
func (s *Session) Close() {
	s.debouncer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.teardown()
	if s.cancelSearch != nil {
		s.cancelSearch()
		s.cancelSearch = nil
	}
}

// LastActive reports when the session was last touched by a caller.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) phaseLocked() Phase {
	switch {
	case s.selected != nil:
		return PhaseDetail
	case s.searching:
		return PhaseLoading
	case s.loadingMore:
		return PhaseLoadingMore
	case s.debouncedQuery != "":
		return PhaseReady
	default:
		return PhaseIdle
	}
}

func (s *Session) clearSelectionLocked() {
	s.selectGen++
	s.selected = nil
	s.detail = nil
	s.detailErr = ""
	s.detailLoading = false
}

func (s *Session) touchLocked() {
	s.lastActive = time.Now()
}

func (s *Session) callContext() (context.Context, context.CancelFunc) {
	if s.callTimeout > 0 {
		return context.WithTimeout(s.baseCtx, s.callTimeout)
	}
	return context.WithCancel(s.baseCtx)
}

func canonicalQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
