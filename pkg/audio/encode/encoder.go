// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

// Encoder encodes interleaved float32 samples
type Encoder interface {
	// Encode writes the coded form of samples to out and returns the bytes written
	Encode(samples []float32, out []byte) (int, error)

	// Close releases encoder resources
	Close() error
}
