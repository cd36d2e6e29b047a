package audio

// pcmScale is the divisor used to normalize int16 samples into [-1.0, 1.0).
const pcmScale = 32768.0

// pcmMax is the multiplier used when converting float samples back to int16.
// 32767 (not 32768) so that +1.0 maps to the largest representable sample.
const pcmMax = 32767.0

// ToFloat32 normalizes int16 PCM samples to float32 values in [-1.0, 1.0).
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / pcmScale
	}
	return out
}

// ToInt16 converts normalized float32 samples back to int16 PCM. Values are
// scaled by 32767 and clamped to the representable range so inputs at or near
// ±1.0 cannot overflow.
func ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * pcmMax
		switch {
		case v > pcmMax:
			v = pcmMax
		case v < -pcmScale:
			v = -pcmScale
		}
		out[i] = int16(v)
	}
	return out
}
