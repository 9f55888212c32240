package glimshow

import (
	"sync"

	"github.com/junsooki/glimshow/display"
)

var (
	shutdownMu sync.Mutex
	opened     []display.Backend
	screens    = map[*FullScreen]struct{}{}
)

func track(b display.Backend) {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	for _, o := range opened {
		if o == b {
			return
		}
	}
	opened = append(opened, b)
}

func trackScreen(fs *FullScreen) {
	shutdownMu.Lock()
	screens[fs] = struct{}{}
	shutdownMu.Unlock()
}

func untrackScreen(fs *FullScreen) {
	shutdownMu.Lock()
	delete(screens, fs)
	shutdownMu.Unlock()
}

// Shutdown terminates every windowing backend New has initialized, whether
// or not the FullScreen values were closed; open ones behave as closed
// afterwards. Hosts defer it in main so the display is released on every
// exit path. Only the first call after a New does any work, and it must
// run on the goroutine that called New.
func Shutdown() {
	shutdownMu.Lock()
	pending := opened
	opened = nil
	for fs := range screens {
		fs.closed.Store(true)
	}
	clear(screens)
	shutdownMu.Unlock()

	for _, b := range pending {
		b.Terminate()
	}
}
