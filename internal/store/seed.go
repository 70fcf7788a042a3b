package store

import (
	"context"
	"fmt"
	"time"

	"paysched/internal/core"
)

type demoPayment struct {
	draft     core.Draft
	status    core.Status
	planned   core.Date
	reason    string
	trashed   bool
	deletedAt time.Time
}

func demoPayments() []demoPayment {
	d := core.NewDate
	return []demoPayment{
		{draft: core.Draft{PayeeName: "Tokyo Electric Power", Amount: 15000, DueDate: d(2024, 1, 15), Type: core.TypeMonthly, Method: core.MethodBankTransfer, Notes: "Monthly electricity bill"}},
		{draft: core.Draft{PayeeName: "NTT Communications", Amount: 8500, DueDate: d(2024, 1, 18), Type: core.TypeMonthly, Method: core.MethodCreditCard, Notes: "Internet service"}, status: core.StatusPending},
		{draft: core.Draft{PayeeName: "Office Rent", Amount: 120000, DueDate: d(2024, 1, 20), Type: core.TypeMonthly, Method: core.MethodBankTransfer, Notes: "Monthly office rent"}},
		{draft: core.Draft{PayeeName: "Insurance Premium", Amount: 25000, DueDate: d(2024, 1, 10), Type: core.TypeMonthly, Method: core.MethodBankTransfer, Notes: "Health insurance"}, status: core.StatusPaid},
		{draft: core.Draft{PayeeName: "Software License", Amount: 12000, DueDate: d(2024, 1, 5), Type: core.TypeOneTime, Method: core.MethodCreditCard, Notes: "Adobe Creative Suite"}, status: core.StatusPending},
		{draft: core.Draft{PayeeName: "Marketing Campaign", Amount: 45000, DueDate: d(2024, 1, 10), Type: core.TypeOneTime, Method: core.MethodBankTransfer, Notes: "Deferred due to budget review - will pay after Q1 results"},
			status: core.StatusDeferred, planned: d(2024, 4, 15), reason: "Budget review pending"},
		{draft: core.Draft{PayeeName: "Equipment Purchase", Amount: 85000, DueDate: d(2024, 1, 5), Type: core.TypeOneTime, Method: core.MethodBankTransfer, Notes: "Equipment delivery delayed, payment deferred accordingly"},
			status: core.StatusDeferred, planned: d(2024, 3, 1), reason: "Equipment delivery delayed"},
		{draft: core.Draft{PayeeName: "Old Subscription", Amount: 5000, DueDate: d(2024, 1, 8), Type: core.TypeMonthly, Method: core.MethodCreditCard},
			trashed: true, deletedAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
		{draft: core.Draft{PayeeName: "Cancelled Service", Amount: 12000, DueDate: d(2024, 1, 15), Type: core.TypeMonthly, Method: core.MethodBankTransfer},
			trashed: true, deletedAt: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)},
	}
}

// SeedDemo fills repo with the demonstration schedule: seven active payments (two
// of them deferred) and two in the trash. It only goes through the Repository port,
// so it works for every backend.
func SeedDemo(ctx context.Context, repo Repository, now time.Time) error {
	for _, dp := range demoPayments() {
		p, err := repo.Create(ctx, dp.draft, now)
		if err != nil {
			return fmt.Errorf("seed %q: %w", dp.draft.PayeeName, err)
		}
		if dp.status != "" {
			_, err = repo.Update(ctx, p.ID, func(p *core.Payment) error {
				if dp.status == core.StatusDeferred {
					return core.Defer(p, dp.planned, dp.reason)
				}
				return core.SetStatus(p, dp.status)
			}, now)
			if err != nil {
				return fmt.Errorf("seed %q status: %w", dp.draft.PayeeName, err)
			}
		}
		if dp.trashed {
			if _, err := repo.SoftDelete(ctx, p.ID, dp.deletedAt); err != nil {
				return fmt.Errorf("seed %q trash: %w", dp.draft.PayeeName, err)
			}
		}
	}
	return nil
}
