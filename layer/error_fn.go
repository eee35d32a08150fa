package layer

// MakeError produces the error a layer returns when it gives up on a call.
type MakeError interface {
	MakeError() error
}

// StaticError returns the same precomputed error on every occurrence.
type StaticError struct {
	Err error
}

// MakeError returns e.Err.
func (e StaticError) MakeError() error {
	return e.Err
}

// ErrorFunc builds a fresh error every time it is invoked.
type ErrorFunc func() error

// MakeError calls f.
func (f ErrorFunc) MakeError() error {
	return f()
}
