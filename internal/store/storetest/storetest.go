// Package storetest holds the behaviour every store.Repository must satisfy.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paysched/internal/core"
	"paysched/internal/store"
)

var now = time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC)

// Run exercises repo constructors returned by newRepo. Each subtest gets a fresh repository.
func Run(t *testing.T, newRepo func(t *testing.T) store.Repository) {
	t.Run("CreateAssignsFreshIDs", func(t *testing.T) { testCreate(t, newRepo(t)) })
	t.Run("CreateRejectsInvalidDraft", func(t *testing.T) { testCreateInvalid(t, newRepo(t)) })
	t.Run("MissingIDs", func(t *testing.T) { testMissing(t, newRepo(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("TrashRoundTrip", func(t *testing.T) { testTrash(t, newRepo(t)) })
	t.Run("HardDeleteIsFinal", func(t *testing.T) { testHardDelete(t, newRepo(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newRepo(t)) })
	t.Run("DeferralRoundTrip", func(t *testing.T) { testDeferral(t, newRepo(t)) })
	t.Run("SeedDemo", func(t *testing.T) { testSeed(t, newRepo(t)) })
}

func rent() core.Draft {
	return core.Draft{
		PayeeName: "Rent",
		Amount:    120000,
		DueDate:   core.NewDate(2024, time.January, 20),
		Type:      core.TypeMonthly,
		Method:    core.MethodBankTransfer,
		Notes:     "office",
		Document:  &core.DocumentRef{Path: "/uploads/1-lease.pdf", Name: "lease.pdf", ContentType: "application/pdf", Size: 2048},
	}
}

func testCreate(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		p, err := repo.Create(ctx, rent(), now)
		require.NoError(t, err)
		require.False(t, seen[p.ID], "id %d issued twice", p.ID)
		seen[p.ID] = true

		require.Equal(t, core.StatusUpcoming, p.Status)
		require.Equal(t, "Rent", p.PayeeName)
		require.Equal(t, core.Yen(120000), p.Amount)
		require.Equal(t, "2024-01-20", p.DueDate.String())
		require.Equal(t, core.MethodBankTransfer, p.Method)
		require.Equal(t, "office", p.Notes)
		require.NotNil(t, p.Document)
		require.Equal(t, "lease.pdf", p.Document.Name)
		require.Nil(t, p.DeletedAt)

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, p.ID, got.ID)
		require.Equal(t, p.Document.Path, got.Document.Path)
	}

	// ids of removed records are not handed out again
	first, err := repo.Create(ctx, rent(), now)
	require.NoError(t, err)
	_, err = repo.SoftDelete(ctx, first.ID, now)
	require.NoError(t, err)
	require.NoError(t, repo.HardDelete(ctx, first.ID))
	next, err := repo.Create(ctx, rent(), now)
	require.NoError(t, err)
	require.Greater(t, next.ID, first.ID)
}

func testCreateInvalid(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	bads := []core.Draft{
		{PayeeName: " ", Amount: 1, DueDate: core.NewDate(2024, 1, 1)},
		{PayeeName: "x", Amount: -5, DueDate: core.NewDate(2024, 1, 1)},
		{PayeeName: "x", Amount: 1},
		{PayeeName: "x", Amount: 1, DueDate: core.NewDate(2024, 1, 1), Method: "barter"},
	}
	for i, d := range bads {
		_, err := repo.Create(ctx, d, now)
		require.ErrorIs(t, err, core.ErrValidation, "case %d", i)
	}
	seq, err := repo.List(ctx, core.Filter{})
	require.NoError(t, err)
	require.Empty(t, core.Collect(seq))
}

func testMissing(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	const id = 4242
	_, err := repo.Get(ctx, id)
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.Update(ctx, id, func(*core.Payment) error { return nil }, now)
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.SoftDelete(ctx, id, now)
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.Restore(ctx, id)
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, repo.HardDelete(ctx, id), core.ErrNotFound)

	var nf *core.NotFoundError
	require.True(t, errors.As(repo.HardDelete(ctx, id), &nf))
	require.Equal(t, int64(id), nf.ID)
}

func testUpdate(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	p, err := repo.Create(ctx, rent(), now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	updated, err := repo.Update(ctx, p.ID, func(p *core.Payment) error {
		p.Amount = 125000
		return core.SetStatus(p, core.StatusPending)
	}, later)
	require.NoError(t, err)
	require.Equal(t, core.Yen(125000), updated.Amount)
	require.Equal(t, core.StatusPending, updated.Status)
	require.Greater(t, updated.Version, p.Version)
	require.True(t, updated.UpdatedAt.Equal(later))

	// a failing mutation writes nothing
	boom := errors.New("boom")
	_, err = repo.Update(ctx, p.ID, func(p *core.Payment) error {
		p.Amount = 1
		return boom
	}, later)
	require.ErrorIs(t, err, boom)

	// nor does one that leaves the record invalid
	_, err = repo.Update(ctx, p.ID, func(p *core.Payment) error {
		p.PayeeName = ""
		return nil
	}, later)
	require.ErrorIs(t, err, core.ErrValidation)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, core.Yen(125000), got.Amount)
	require.Equal(t, "Rent", got.PayeeName)

	// trashed records cannot be updated
	_, err = repo.SoftDelete(ctx, p.ID, later)
	require.NoError(t, err)
	_, err = repo.Update(ctx, p.ID, func(*core.Payment) error { return nil }, later)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func testTrash(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	a, err := repo.Create(ctx, rent(), now)
	require.NoError(t, err)
	b, err := repo.Create(ctx, core.Draft{PayeeName: "Water", Amount: 4000, DueDate: core.NewDate(2024, 1, 8)}, now)
	require.NoError(t, err)

	trashedA, err := repo.SoftDelete(ctx, a.ID, now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, trashedA.DeletedAt)
	_, err = repo.SoftDelete(ctx, b.ID, now.Add(2*time.Minute))
	require.NoError(t, err)

	_, err = repo.SoftDelete(ctx, a.ID, now)
	require.ErrorIs(t, err, core.ErrNotFound, "already trashed")

	seq, err := repo.List(ctx, core.Filter{})
	require.NoError(t, err)
	require.Empty(t, core.Collect(seq))

	trash, err := repo.Trash(ctx)
	require.NoError(t, err)
	items := core.Collect(trash)
	require.Len(t, items, 2)
	require.Equal(t, b.ID, items[0].ID, "newest deletion first")

	restored, err := repo.Restore(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, restored.DeletedAt)
	require.Equal(t, a.PayeeName, restored.PayeeName)
	require.Equal(t, a.Amount, restored.Amount)
	require.Equal(t, a.DueDate, restored.DueDate)
	require.Equal(t, a.Status, restored.Status)
	require.Equal(t, a.Notes, restored.Notes)
	require.Equal(t, a.Document, restored.Document)
	require.Equal(t, a.Version, restored.Version)

	_, err = repo.Restore(ctx, a.ID)
	require.ErrorIs(t, err, core.ErrNotFound, "not in trash")
}

func testHardDelete(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	p, err := repo.Create(ctx, rent(), now)
	require.NoError(t, err)

	require.ErrorIs(t, repo.HardDelete(ctx, p.ID), core.ErrNotFound, "active records must be trashed first")

	_, err = repo.SoftDelete(ctx, p.ID, now)
	require.NoError(t, err)
	require.NoError(t, repo.HardDelete(ctx, p.ID))

	_, err = repo.Restore(ctx, p.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.Get(ctx, p.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func testList(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	drafts := []core.Draft{
		{PayeeName: "Tokyo Electric Power", Amount: 15000, DueDate: core.NewDate(2024, 1, 15), Notes: "Monthly electricity bill"},
		{PayeeName: "NTT Communications", Amount: 8500, DueDate: core.NewDate(2024, 1, 18), Notes: "Internet service"},
		{PayeeName: "Office Rent", Amount: 120000, DueDate: core.NewDate(2024, 1, 20)},
	}
	var ids []int64
	for _, d := range drafts {
		p, err := repo.Create(ctx, d, now)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	_, err := repo.Update(ctx, ids[1], func(p *core.Payment) error { return core.SetStatus(p, core.StatusPending) }, now)
	require.NoError(t, err)

	collectIDs := func(f core.Filter) []int64 {
		seq, err := repo.List(ctx, f)
		require.NoError(t, err)
		var out []int64
		for p := range seq {
			out = append(out, p.ID)
		}
		return out
	}

	require.Equal(t, ids, collectIDs(core.Filter{}))
	pending := core.StatusPending
	require.Equal(t, []int64{ids[1]}, collectIDs(core.Filter{Status: &pending}))
	require.Equal(t, []int64{ids[0]}, collectIDs(core.Filter{Search: "ELECTRIC"}))
	require.Equal(t, []int64{ids[1]}, collectIDs(core.Filter{Search: "internet"}))
	require.Equal(t, []int64{ids[2], ids[0], ids[1]}, collectIDs(core.Filter{Sort: core.SortAmount, Desc: true}))

	_, err = repo.List(ctx, core.Filter{Sort: "colour"})
	require.ErrorIs(t, err, core.ErrValidation)

	// the sequence can be walked twice and does not see later writes
	seq, err := repo.List(ctx, core.Filter{})
	require.NoError(t, err)
	_, err = repo.Create(ctx, rent(), now)
	require.NoError(t, err)
	require.Len(t, core.Collect(seq), 3)
	require.Len(t, core.Collect(seq), 3)
}

func testDeferral(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	p, err := repo.Create(ctx, core.Draft{PayeeName: "Rent", Amount: 120000, DueDate: core.NewDate(2024, 1, 20)}, now)
	require.NoError(t, err)

	deferred, err := repo.Update(ctx, p.ID, func(p *core.Payment) error {
		return core.Defer(p, core.NewDate(2024, 4, 15), "cash flow")
	}, now)
	require.NoError(t, err)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, core.StatusDeferred, got.Status)
	require.Equal(t, "2024-01-20", got.OriginalDueDate.String())
	require.Equal(t, "2024-04-15", got.PlannedPaymentDate.String())
	require.Equal(t, "cash flow", got.DeferredReason)
	require.Equal(t, deferred.Version, got.Version)

	_, err = repo.Update(ctx, p.ID, core.MarkPending, now)
	require.NoError(t, err)

	seq, err := repo.List(ctx, core.Filter{})
	require.NoError(t, err)
	grid, err := core.BuildMonth(2024, time.January, seq)
	require.NoError(t, err)
	cell, ok := grid.Day(20)
	require.True(t, ok)
	require.Len(t, cell.Payments, 1)
	require.Equal(t, core.StatusPending, cell.Payments[0].Status)
	require.True(t, cell.Payments[0].PlannedPaymentDate.IsZero())
	require.Empty(t, cell.Payments[0].DeferredReason)
}

func testSeed(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	require.NoError(t, store.SeedDemo(ctx, repo, now))

	seq, err := repo.List(ctx, core.Filter{})
	require.NoError(t, err)
	require.Len(t, core.Collect(seq), 7)
	require.Equal(t, 2, core.CountByStatus(seq, core.StatusDeferred))

	trash, err := repo.Trash(ctx)
	require.NoError(t, err)
	trashed := core.Collect(trash)
	require.Len(t, trashed, 2)
	require.Equal(t, "Old Subscription", trashed[0].PayeeName)
}
