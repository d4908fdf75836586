package combo

import (
	"errors"

	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
)

var (
	ErrSessionNotFound    = domain.ErrNotFound
	ErrEmptySelection     = errors.New("combo: no items selected for purchase")
	ErrSubmission         = errors.New("combo: purchase submission failed")
	ErrSubmissionInFlight = errors.New("combo: a purchase is already being submitted")
	ErrUnboundRow         = errors.New("combo: row is not bound to a rendered item")
)
