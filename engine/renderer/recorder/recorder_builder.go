package recorder

import "github.com/Carmen-Shannon/oxy-batch/common"

// RecorderBuilderOption is a functional option applied to a Recorder during construction via NewRecorder.
type RecorderBuilderOption func(*Recorder)

// WithCapacity bounds the geometry a program may upload, mirroring a fixed-size GPU buffer.
//
// Parameters:
//   - program: the shader program id
//   - vertices: the maximum vertex count (<= 0 means unbounded)
//   - indices: the maximum index count (<= 0 means unbounded)
//
// Returns:
//   - RecorderBuilderOption: option function to apply
func WithCapacity(program common.ProgramID, vertices, indices int) RecorderBuilderOption {
	return func(r *Recorder) {
		r.capacity[program] = [2]int{vertices, indices}
	}
}

// WithCallLog enables or disables keeping the per-call log. Long headless runs disable it
// and rely on Totals.
//
// Parameters:
//   - enabled: true to record every call (default)
//
// Returns:
//   - RecorderBuilderOption: option function to apply
func WithCallLog(enabled bool) RecorderBuilderOption {
	return func(r *Recorder) {
		r.keepCalls = enabled
	}
}

// WithPresentError makes every Present call fail with err.
//
// Parameters:
//   - err: the error Present returns
//
// Returns:
//   - RecorderBuilderOption: option function to apply
func WithPresentError(err error) RecorderBuilderOption {
	return func(r *Recorder) {
		r.failPresent = err
	}
}
