package evaluator

import (
	"fmt"

	"github.com/spelllang/spell/pkg/diagnostics"
)

// BudgetTracker counts loop iterations across one Interpret call.
type BudgetTracker struct {
	MaxIterations int64 // 0 means unlimited
	Iterations    int64
}

// tick records one loop iteration and fails once the limit is passed.
func (b *BudgetTracker) tick() error {
	b.Iterations++
	if b.MaxIterations > 0 && b.Iterations > b.MaxIterations {
		return &RuntimeError{
			Code:    diagnostics.EBudget,
			Message: fmt.Sprintf("iteration budget exceeded (max %d)", b.MaxIterations),
		}
	}
	return nil
}
