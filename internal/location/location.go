package location

import (
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
)

var (
	ErrNotFound             = fmt.Errorf("location %w", apperror.ErrNotFound)
	ErrDuplicateMachineCode = fmt.Errorf("machine code already registered: %w", apperror.ErrConflict)
)

// Location is a physical kiosk. Only the active flag matters to payments.
type Location struct {
	ID          int64
	MachineCode string
	Name        string
	Address     *string
	IsActive    bool
	CreatedAt   time.Time
}
