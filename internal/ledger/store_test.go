package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/analytics"
	"finledger/internal/core"
	"finledger/internal/storage"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *storage.MemoryGateway) {
	t.Helper()
	gw := storage.NewMemoryGateway()
	s := New(gw, WithClock(func() time.Time { return testNow }))
	require.NoError(t, s.Load(context.Background()))
	return s, gw
}

func validPayload() core.Payload {
	return core.Payload{
		Description: "Groceries",
		Amount:      "45.50",
		Category:    "comida",
		Type:        "expense",
		Date:        "2026-08-30",
	}
}

func TestAddAssignsIDAndNormalizesSign(t *testing.T) {
	s, gw := newTestStore(t)

	tx, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, int64(-4550), tx.Amount.Cents)
	assert.Equal(t, testNow.UnixMilli(), tx.Timestamp)

	stored, err := gw.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, tx.ID, stored[0].ID)
}

func TestAddPrependsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	p := validPayload()
	p.Description = "Taxi"
	second, err := s.Add(context.Background(), p)
	require.NoError(t, err)

	txs := s.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, second.ID, txs[0].ID)
	assert.Equal(t, first.ID, txs[1].ID)
}

func TestAddValidationFailureLeavesStateUntouched(t *testing.T) {
	s, _ := newTestStore(t)

	p := validPayload()
	p.Amount = "-5"
	p.Description = ""
	_, err := s.Add(context.Background(), p)

	var fieldErrs core.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "amount")
	assert.Contains(t, fieldErrs, "description")
	assert.Equal(t, 0, s.Count())

	alert, ok := s.Alert()
	require.True(t, ok)
	assert.Equal(t, AlertError, alert.Type)
}

func TestAddSanitizesDescription(t *testing.T) {
	s, _ := newTestStore(t)

	p := validPayload()
	p.Description = `Lunch <script>alert("x")</script> downtown`
	tx, err := s.Add(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Lunch  downtown", tx.Description)
}

func TestAddPersistFailureKeepsMutation(t *testing.T) {
	s, gw := newTestStore(t)
	gw.FailSaves = errors.New("disk full")

	tx, err := s.Add(context.Background(), validPayload())
	require.ErrorIs(t, err, ErrPersist)

	// In-memory state is authoritative; the record stands.
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, 1, s.Count())

	alert, ok := s.Alert()
	require.True(t, ok)
	assert.Equal(t, AlertWarning, alert.Type)
}

func TestRemoveAbsentIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	tx, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	require.NoError(t, s.Remove(context.Background(), "no-such-id"))
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Remove(context.Background(), tx.ID))
	assert.Equal(t, 0, s.Count())
}

func TestClearResetsFilter(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	typ := "expense"
	search := "groc"
	s.SetFilter(FilterPatch{Type: &typ, Search: &search})

	require.NoError(t, s.Clear(context.Background()))
	assert.Equal(t, 0, s.Count())
	assert.True(t, s.Filter().IsDefault())
}

func TestImportReplacesSequence(t *testing.T) {
	s, gw := newTestStore(t)
	_, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	records := []core.Transaction{
		{ID: "imp-1", Description: "Old salary", Amount: core.Money{Cents: 100000},
			Category: "salario", Type: core.Income, Date: core.NewDate(2024, 1, 15)},
		{Description: "No id", Amount: core.Money{Cents: 500},
			Category: "otros", Type: "bogus", Date: core.NewDate(2024, 2, 1)},
	}
	require.NoError(t, s.Import(context.Background(), records))

	txs := s.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "imp-1", txs[0].ID)
	// Missing id gets a fresh one, invalid type defaults to expense with a
	// renormalized sign.
	assert.NotEmpty(t, txs[1].ID)
	assert.Equal(t, core.Expense, txs[1].Type)
	assert.Equal(t, int64(-500), txs[1].Amount.Cents)

	stored, err := gw.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestImportRejectsDuplicateIDs(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	records := []core.Transaction{
		{ID: "dup", Amount: core.Money{Cents: 100}, Type: core.Income, Date: core.NewDate(2024, 1, 1)},
		{ID: "dup", Amount: core.Money{Cents: 200}, Type: core.Income, Date: core.NewDate(2024, 1, 2)},
	}
	err = s.Import(context.Background(), records)
	require.ErrorIs(t, err, ErrDuplicateID)

	// Rejected import leaves the existing sequence in place.
	assert.Equal(t, 1, s.Count())
}

func TestSetFilterMergesPartialUpdate(t *testing.T) {
	s, _ := newTestStore(t)

	typ := "income"
	s.SetFilter(FilterPatch{Type: &typ})
	cat := "salario"
	s.SetFilter(FilterPatch{Category: &cat})

	f := s.Filter()
	assert.Equal(t, "income", f.Type)
	assert.Equal(t, "salario", f.Category)
	assert.Equal(t, "", f.Search)

	s.ClearFilter()
	assert.Equal(t, analytics.DefaultFilter(), s.Filter())
}

func TestFilteredView(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	p := validPayload()
	p.Description = "Salary"
	p.Category = "salario"
	p.Type = "income"
	_, err = s.Add(context.Background(), p)
	require.NoError(t, err)

	typ := "income"
	s.SetFilter(FilterPatch{Type: &typ})

	filtered := s.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "Salary", filtered[0].Description)
	assert.Equal(t, 2, s.Count())
}

func TestSetCurrency(t *testing.T) {
	s, gw := newTestStore(t)

	require.NoError(t, s.SetCurrency(context.Background(), "JPY"))
	assert.Equal(t, "JPY", s.Currency())

	code, err := gw.LoadCurrency(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JPY", code)

	err = s.SetCurrency(context.Background(), "XXX")
	require.Error(t, err)
	assert.Equal(t, "JPY", s.Currency())
}

func TestAlertExpiry(t *testing.T) {
	gw := storage.NewMemoryGateway()
	now := testNow
	s := New(gw, WithClock(func() time.Time { return now }))

	_, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	alert, ok := s.Alert()
	require.True(t, ok)
	assert.Equal(t, AlertSuccess, alert.Type)

	now = now.Add(AlertTTL + time.Millisecond)
	_, ok = s.Alert()
	assert.False(t, ok)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s, _ := newTestStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	tx, err := s.Add(context.Background(), validPayload())
	require.NoError(t, err)

	ev := <-ch
	assert.Equal(t, EventAdded, ev.Kind)
	require.NotNil(t, ev.Transaction)
	assert.Equal(t, tx.ID, ev.Transaction.ID)
	assert.Equal(t, 1, ev.Count)

	require.NoError(t, s.Remove(context.Background(), tx.ID))
	ev = <-ch
	assert.Equal(t, EventRemoved, ev.Kind)
	assert.Equal(t, 0, ev.Count)
}

func TestLoadHydratesFromGateway(t *testing.T) {
	gw := storage.NewMemoryGateway()
	require.NoError(t, gw.Save(context.Background(), []core.Transaction{
		{ID: "seed", Description: "Seed", Amount: core.Money{Cents: 1000},
			Category: "otros", Type: core.Income, Date: core.NewDate(2026, 1, 1)},
	}))
	require.NoError(t, gw.SaveCurrency(context.Background(), "USD"))

	s := New(gw)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, "USD", s.Currency())
}
