package try

// something have method `Fatal`.
//
// For example: *testing.T, *rapid.T, *log.Logger
type Fataler interface {
	Fatal(...any)
}

// A pair of (T, error) returned from a fallible call.
//
// When error is nil, the value is valid. Otherwise the value must not be used.
type Either[T any] interface {
	// get value & error pair
	Get() (T, error)

	// Return the value, or call ftl.Fatal(err) when it has error.
	//
	// If ftl has "Helper()" method (like *testing.T), it is called before `Fatal`.
	OrFatal(ftl Fataler) T

	// Return the value, or d when it has error.
	OrDefault(d T) T
}

// Wrap a (value, error) pair.
//
// Typical usage is
//
//	m := try.To(manifest.Load(path)).OrFatal(logger)
func To[T any](ok T, ng error) Either[T] {
	if ng == nil {
		return tryOk[T]{ok}
	}
	return tryNg[T]{ng}
}

// Convert value if the either has value.
func Map[T any, R any](e Either[T], mapper func(T) R) Either[R] {
	val, err := e.Get()
	if err != nil {
		return tryNg[R]{err}
	}
	return tryOk[R]{mapper(val)}
}

type tryOk[T any] struct {
	value T
}

type tryNg[T any] struct {
	err error
}

func (ok tryOk[T]) Get() (T, error) {
	return ok.value, nil
}

func (ng tryNg[T]) Get() (T, error) {
	return *new(T), ng.err
}

func (ok tryOk[T]) OrDefault(T) T {
	return ok.value
}

func (ng tryNg[T]) OrDefault(d T) T {
	return d
}

func (ok tryOk[T]) OrFatal(Fataler) T {
	return ok.value
}

func (ng tryNg[T]) OrFatal(ftl Fataler) T {
	if hlp, ok := ftl.(interface{ Helper() }); ok {
		hlp.Helper()
	}
	ftl.Fatal(ng.err)

	return *new(T)
}
