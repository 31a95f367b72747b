package safe

import (
	"UniChat/logger"
	"UniChat/tools/errs"
)

// Go starts a goroutine that recovers from panic, so a handler panic
// never takes down the whole gateway.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] %v", errs.ErrPanic(r))
			}
		}()
		f()
	}()
}
