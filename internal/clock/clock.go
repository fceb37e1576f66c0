package clock

import (
	"time"

	"github.com/samber/do/v2"
)

// Clock supplies the current time as epoch seconds. All duration math in the
// ledgers goes through this so tests can substitute a fixed clock.
type Clock interface {
	Now() int64
}

type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Clock, error) {
		return SystemClock{}, nil
	})
}
