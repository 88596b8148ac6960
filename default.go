package dnload

import "sync"

var (
	defaultOnce sync.Once
	defaultB    Binder
	defaultErr  error
)

// defaultBinder shares one Default binder across every Load.
func defaultBinder() (Binder, error) {
	defaultOnce.Do(func() {
		defaultB, defaultErr = Default()
	})
	return defaultB, defaultErr
}
