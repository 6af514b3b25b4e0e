package embedding

import "context"

// BudgetChecker enforces the shared token budget.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}
