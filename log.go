package curves

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var debugLog atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	debugLog.Store(&nop)
}

// SetLogger sets the logger that receives debug events from compiling and
// sampling. By default, events are discarded.
func SetLogger(l zerolog.Logger) {
	debugLog.Store(&l)
}

func logger() *zerolog.Logger {
	return debugLog.Load()
}
