package client

// Result is the outcome of one operation started with Go.
type Result[T any] struct {
	Value T
	Err   error
}

// Go runs fn on its own goroutine and delivers its result exactly once on the
// returned channel. There is no ordering between separate calls and no way to
// cancel fn once started; a hung call only blocks its own goroutine.
func Go[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
