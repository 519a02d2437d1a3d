// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and sample conversions
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a coded audio stream
type Format struct {
	Codec       string
	SampleRate  int
	Channels    int
	BitDepth    int
	CodecHeader []byte // OpusHead for Opus, nil for PCM

	// MaxFramesPerPacket bounds the frames one packet decodes to, 0 if the codec defines it
	MaxFramesPerPacket int
}

// Codec names understood by the decoders
const (
	CodecOpus     = "opus"
	CodecPCM      = "pcm"       // signed little-endian integers, 16 or 24 bit
	CodecPCMFloat = "pcm_float" // 32-bit little-endian IEEE floats
)

// Int16ToFloat converts a 16-bit sample to [-1, 1)
func Int16ToFloat(sample int16) float32 {
	return float32(sample) / 32768
}

// FloatToInt16 converts a float sample to 16-bit with clipping
func FloatToInt16(sample float32) int16 {
	scaled := sample * 32768
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}

// Int24ToFloat converts a 24-bit sample held in an int32 to [-1, 1)
func Int24ToFloat(sample int32) float32 {
	return float32(sample) / 8388608
}

// FloatToInt24 converts a float sample to the 24-bit range with clipping
func FloatToInt24(sample float32) int32 {
	scaled := float64(sample) * 8388608
	if scaled > Max24Bit {
		return Max24Bit
	}
	if scaled < Min24Bit {
		return Min24Bit
	}
	return int32(scaled)
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF // Set upper 8 bits to 1 for negative values
	}
	return val
}
