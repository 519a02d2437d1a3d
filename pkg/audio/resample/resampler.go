// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams float32 frames across calls using linear interpolation
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64   // fractional read position relative to the first pending frame
	pending    []float32 // input frames not yet fully consumed
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Passthrough reports whether the rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts interleaved input at inputRate into output at outputRate.
// Frames that cannot be interpolated yet are carried into the next call.
// It returns the number of samples written to output.
func (r *Resampler) Resample(input []float32, output []float32) int {
	if r.Passthrough() {
		return copy(output, input)
	}

	r.pending = append(r.pending, input[:len(input)-len(input)%r.channels]...)
	inputFrames := len(r.pending) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(r.position)

		// Need the next frame to interpolate
		if inputIdx >= inputFrames-1 {
			break
		}

		frac := float32(r.position - float64(inputIdx))
		for ch := 0; ch < r.channels; ch++ {
			sample1 := r.pending[inputIdx*r.channels+ch]
			sample2 := r.pending[(inputIdx+1)*r.channels+ch]
			output[outIdx*r.channels+ch] = sample1*(1-frac) + sample2*frac
		}

		outIdx++
		r.position += r.ratio
	}

	// Drop consumed frames, keep the fractional part
	consumed := int(r.position)
	if consumed > inputFrames {
		consumed = inputFrames
	}
	r.pending = append(r.pending[:0], r.pending[consumed*r.channels:]...)
	r.position -= float64(consumed)

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.pending = r.pending[:0]
}

// OutputSamplesNeeded calculates how many output samples input samples can produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}
