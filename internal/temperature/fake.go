package temperature

import "errors"

// FakeSampler returns scripted temperature values.
type FakeSampler struct {
	// Values contains scripted readings. Each Sample call consumes the
	// next value; the last value repeats once exhausted.
	Values []int

	// SampleError, if set, will be returned by Sample.
	SampleError error

	index int
}

// Sample returns the next scripted value.
func (f *FakeSampler) Sample() (int, error) {
	if f.SampleError != nil {
		return 0, f.SampleError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}
