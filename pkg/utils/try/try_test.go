package try_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/opst/datapod/pkg/utils/try"
)

type fataler struct {
	fatal [][]any
}

func (f *fataler) Fatal(args ...any) {
	f.fatal = append(f.fatal, args)
}

type helperfataler struct {
	fataler

	helper uint
}

func (hf *helperfataler) Helper() {
	hf.helper += 1
}

func TestTo(t *testing.T) {
	t.Run("when it does not have error,", func(t *testing.T) {
		testee := try.To(42, nil)

		t.Run("OrFatal returns the value without calling Fatal", func(t *testing.T) {
			f := &helperfataler{}
			if got := testee.OrFatal(f); got != 42 {
				t.Errorf("unexpected value: %d", got)
			}
			if len(f.fatal) != 0 || f.helper != 0 {
				t.Errorf("fataler is called: %+v", f)
			}
		})

		t.Run("OrDefault returns the value", func(t *testing.T) {
			if got := testee.OrDefault(7); got != 42 {
				t.Errorf("unexpected value: %d", got)
			}
		})

		t.Run("Get returns value and nil", func(t *testing.T) {
			got, err := testee.Get()
			if got != 42 || err != nil {
				t.Errorf("unexpected pair: (%d, %v)", got, err)
			}
		})
	})

	t.Run("when it has error,", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		testee := try.To(42, expectedErr)

		t.Run("OrFatal calls Helper and Fatal with the error", func(t *testing.T) {
			f := &helperfataler{}
			if got := testee.OrFatal(f); got != 0 {
				t.Errorf("unexpected value: %d", got)
			}
			if f.helper != 1 {
				t.Errorf("Helper is called %d times", f.helper)
			}
			if len(f.fatal) != 1 || f.fatal[0][0] != expectedErr {
				t.Errorf("Fatal is not called with the error: %+v", f.fatal)
			}
		})

		t.Run("OrDefault returns the default", func(t *testing.T) {
			if got := testee.OrDefault(7); got != 7 {
				t.Errorf("unexpected value: %d", got)
			}
		})

		t.Run("Get returns zero value and the error", func(t *testing.T) {
			got, err := testee.Get()
			if got != 0 || !errors.Is(err, expectedErr) {
				t.Errorf("unexpected pair: (%d, %v)", got, err)
			}
		})
	})
}

func TestMap(t *testing.T) {
	t.Run("it converts value", func(t *testing.T) {
		got, err := try.Map(try.To(42, nil), strconv.Itoa).Get()
		if got != "42" || err != nil {
			t.Errorf("unexpected pair: (%s, %v)", got, err)
		}
	})

	t.Run("it passes error", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		_, err := try.Map(try.To(42, expectedErr), strconv.Itoa).Get()
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
