// Package mainloop hands the calling goroutine to a render loop that must
// own it while the host's work runs elsewhere.
package mainloop

// Serve runs fn on a new goroutine. If fn opens a surface, its value
// arrives on opens and run drives it on the calling goroutine. When fn
// returns, release is called so run ends even if fn never closed the
// surface. stop is called with run's error once run returned.
//
// Serve returns fn's error, or run's error if fn succeeded.
func Serve[S any](fn func() error, opens <-chan S, run func(S) error, release func(S), stop func(S, error)) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case s := <-opens:
		result := make(chan error, 1)
		go func() {
			err := <-done
			release(s)
			result <- err
		}()

		runErr := run(s)
		stop(s, runErr)
		if err := <-result; err != nil {
			return err
		}
		return runErr
	}
}
