package entity

import "errors"

var (
	ErrToolNotFound      = errors.New("tool not found")
	ErrInvalidParams     = errors.New("invalid params")
	ErrElementNotFound   = errors.New("element not found")
	ErrPageTimeout       = errors.New("page not ready")
	ErrGenerationTimeout = errors.New("generation did not finish")
	ErrBrowserClosed     = errors.New("browser is closed")
	ErrNotRunning        = errors.New("bridge is not accepting invocations")
)

// IsTimeout reports whether err is one of the bounded-wait expirations of the
// chat routine.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrPageTimeout) ||
		errors.Is(err, ErrGenerationTimeout)
}
