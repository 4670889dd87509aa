// Package ledger is the single in-memory authority for the transaction
// sequence and its UI-adjacent state (filter, display currency, alert).
//
// Every mutation is atomic under one lock and writes through to the
// persistence gateway before returning. The in-memory state is always
// authoritative: when the write-through fails the mutation stands and the
// error is surfaced to the caller instead of being swallowed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"finledger/internal/analytics"
	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// ErrPersist marks a mutation that succeeded in memory but could not be
// mirrored to storage. Callers check with errors.Is.
var ErrPersist = errors.New("ledger: write-through failed")

// ErrDuplicateID rejects an import whose records would break id uniqueness.
var ErrDuplicateID = errors.New("ledger: duplicate transaction id")

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger attaches a component logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store owns the transaction sequence, newest-first. Instantiate one per
// ledger; there is no package-level state.
type Store struct {
	mu      sync.Mutex
	gateway storage.Gateway
	now     func() time.Time
	log     *log.Logger

	txs      []core.Transaction
	filter   analytics.Filter
	currency string
	alert    Alert

	subs      map[int]chan Event
	nextSubID int
}

// New creates an empty store mirroring into the given gateway.
func New(gw storage.Gateway, opts ...Option) *Store {
	s := &Store{
		gateway:  gw,
		now:      time.Now,
		log:      log.New(log.Config{Component: log.ComponentLedger}),
		filter:   analytics.DefaultFilter(),
		currency: core.DefaultCurrency,
		subs:     map[int]chan Event{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the store from the gateway. Corrupt or absent data loads as
// an empty ledger; that is the gateway's contract, not an error here.
func (s *Store) Load(ctx context.Context) error {
	txs, err := s.gateway.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	currency, err := s.gateway.LoadCurrency(ctx)
	if err != nil {
		return fmt.Errorf("load currency: %w", err)
	}
	if currency == "" {
		currency = core.DefaultCurrency
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = txs
	s.currency = currency
	s.log.InfoContext(ctx, "Ledger loaded", "transactions", len(txs), "currency", currency)
	return nil
}

// Add validates a raw payload and, on success, assigns a fresh id and
// timestamp, normalizes the amount sign by type, prepends the record and
// persists the full sequence. On validation failure the ledger is untouched
// and the returned error is a core.FieldErrors. A persistence failure keeps
// the in-memory record and returns an ErrPersist-wrapped error.
func (s *Store) Add(ctx context.Context, raw core.Payload) (core.Transaction, error) {
	p := core.Sanitize(raw)
	today := core.DateOf(s.now())
	if errs := core.Validate(p, today); errs != nil {
		s.mu.Lock()
		s.raiseAlert(firstMessage(errs), AlertError)
		s.mu.Unlock()
		return core.Transaction{}, errs
	}

	cents, err := core.ParseDecimalToCents(p.Amount)
	if err != nil {
		// Unreachable after Validate; kept as a guard.
		return core.Transaction{}, core.FieldErrors{"amount": err.Error()}
	}
	date, _ := core.ParseDate(p.Date)

	tx := core.Transaction{
		ID:          uuid.NewString(),
		Description: p.Description,
		Amount:      core.Money{Cents: cents},
		Category:    p.Category,
		Type:        core.TxType(p.Type),
		Date:        date,
		Timestamp:   s.now().UnixMilli(),
	}.NormalizeSign()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append([]core.Transaction{tx}, s.txs...)
	s.notify(Event{Kind: EventAdded, Transaction: &tx})

	if err := s.persist(ctx); err != nil {
		s.raiseAlert("Transaction added but not saved to storage", AlertWarning)
		return tx, err
	}
	s.raiseAlert("Transaction added successfully", AlertSuccess)
	return tx, nil
}

// Remove deletes the matching record. Removing an id that is not present is
// a no-op, not an error; the sequence is persisted either way.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed *core.Transaction
	kept := s.txs[:0]
	for _, tx := range s.txs {
		if tx.ID == id && removed == nil {
			t := tx
			removed = &t
			continue
		}
		kept = append(kept, tx)
	}
	s.txs = kept
	if removed != nil {
		s.notify(Event{Kind: EventRemoved, Transaction: removed})
	}
	if err := s.persist(ctx); err != nil {
		s.raiseAlert("Deletion not saved to storage", AlertWarning)
		return err
	}
	if removed != nil {
		s.raiseAlert("Transaction deleted", AlertSuccess)
	}
	return nil
}

// Clear empties the sequence, resets the filter to its default and persists
// the empty sequence.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = nil
	s.filter = analytics.DefaultFilter()
	s.notify(Event{Kind: EventCleared})
	if err := s.persist(ctx); err != nil {
		s.raiseAlert("Clear not saved to storage", AlertWarning)
		return err
	}
	s.raiseAlert("All transactions deleted", AlertSuccess)
	return nil
}

// Import replaces the sequence wholesale with externally supplied records.
// Records are trusted: no per-record validation is applied, matching the
// file-import UX. The id-uniqueness invariant is still enforced — records
// without an id get a fresh one, duplicate ids reject the whole import —
// and amount signs are renormalized against the type tag.
func (s *Store) Import(ctx context.Context, records []core.Transaction) error {
	seen := map[string]struct{}{}
	imported := make([]core.Transaction, len(records))
	for i, tx := range records {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		if _, dup := seen[tx.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID)
		}
		seen[tx.ID] = struct{}{}
		if !tx.Type.IsValid() {
			tx.Type = core.Expense
		}
		if tx.Timestamp == 0 {
			tx.Timestamp = s.now().UnixMilli()
		}
		imported[i] = tx.NormalizeSign()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = imported
	s.filter = analytics.DefaultFilter()
	s.notify(Event{Kind: EventImported})
	if err := s.persist(ctx); err != nil {
		s.raiseAlert("Import not saved to storage", AlertWarning)
		return err
	}
	s.raiseAlert("Data imported successfully", AlertSuccess)
	return nil
}

// FilterPatch is a partial filter update; nil fields are left unchanged.
type FilterPatch struct {
	Type     *string `json:"type,omitempty"`
	Category *string `json:"category,omitempty"`
	Search   *string `json:"search,omitempty"`
}

// SetFilter merges a partial update into the filter state. Pure state
// update, nothing is persisted.
func (s *Store) SetFilter(patch FilterPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if patch.Type != nil {
		s.filter.Type = *patch.Type
	}
	if patch.Category != nil {
		s.filter.Category = *patch.Category
	}
	if patch.Search != nil {
		s.filter.Search = *patch.Search
	}
}

// ClearFilter resets the filter to pass everything.
func (s *Store) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = analytics.DefaultFilter()
}

// SetCurrency updates the display-currency preference and persists it
// independently of the transaction sequence.
func (s *Store) SetCurrency(ctx context.Context, code string) error {
	if !core.KnownCurrency(code) {
		s.mu.Lock()
		s.raiseAlert("Unknown currency code", AlertError)
		s.mu.Unlock()
		return fmt.Errorf("unknown currency %q", code)
	}
	cfg := core.CurrencyFor(code)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = cfg.Code
	s.notify(Event{Kind: EventCurrency, Currency: cfg.Code})
	if err := s.gateway.SaveCurrency(ctx, cfg.Code); err != nil {
		s.log.ErrorContext(ctx, "Currency write-through failed", "error", err, "currency", cfg.Code)
		s.raiseAlert("Currency change not saved to storage", AlertWarning)
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}
	s.raiseAlert("Currency changed to "+cfg.Code, AlertSuccess)
	return nil
}

// Transactions returns a copy of the full sequence, newest-first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...)
}

// Filtered returns a copy of the sequence with the current filter applied.
func (s *Store) Filtered() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return analytics.FilteredView(s.txs, s.filter)
}

// Filter returns the current filter state.
func (s *Store) Filter() analytics.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Currency returns the display-currency preference.
func (s *Store) Currency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currency
}

// Count returns the number of records in the ledger.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

// Alert returns the current alert if it has not expired yet.
func (s *Store) Alert() (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alert.expired(s.now()) {
		return Alert{}, false
	}
	return s.alert, true
}

// raiseAlert must be called with s.mu held.
func (s *Store) raiseAlert(message string, typ AlertType) {
	s.alert = Alert{
		Show:      true,
		Message:   message,
		Type:      typ,
		expiresAt: s.now().Add(AlertTTL),
	}
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context) error {
	snapshot := append([]core.Transaction(nil), s.txs...)
	if err := s.gateway.Save(ctx, snapshot); err != nil {
		s.log.ErrorContext(ctx, "Ledger write-through failed", "error", err, "transactions", len(snapshot))
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}
	return nil
}

func firstMessage(errs core.FieldErrors) string {
	// Deterministic: report the first field in a fixed order.
	for _, field := range []string{"description", "amount", "category", "type", "date"} {
		if msg, ok := errs[field]; ok {
			return msg
		}
	}
	for _, msg := range errs {
		return msg
	}
	return "invalid transaction"
}
