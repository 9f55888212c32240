package glimshow

import "github.com/junsooki/glimshow/display"

// Run calls fn in the way the selected backend needs. Backends whose event
// loop must own the main goroutine run it there and call fn on another
// goroutine; the rest call fn directly. Run must be called from main.
//
// opts select the backend the same way they do for New; passing the same
// options to both keeps them consistent.
func Run(fn func() error, opts ...Option) error {
	b, err := buildOptions(opts).resolveBackend()
	if err != nil {
		return fn()
	}
	if ml, ok := b.(display.MainLooper); ok {
		return ml.RunMain(fn)
	}
	return fn()
}
