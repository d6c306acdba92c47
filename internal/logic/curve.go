package logic

// Lerp maps value from [inMin, inMax] onto [outMin, outMax] and clamps the
// result to the output range. A zero-width input range yields outMin.
func Lerp(value, inMin, inMax, outMin, outMax float64) float64 {
	if inMin == inMax {
		return outMin
	}
	out := outMin + (value-inMin)*(outMax-outMin)/(inMax-inMin)

	lo, hi := outMin, outMax
	if lo > hi {
		lo, hi = hi, lo
	}
	if out < lo {
		return lo
	}
	if out > hi {
		return hi
	}
	return out
}

// Evaluate classifies elapsed inactivity into a stage and returns the track
// luminance. Windows are inclusive-lower, exclusive-upper. Negative elapsed
// time is treated as zero.
func Evaluate(c TrackConfig, elapsedMs int64) TrackOutput {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	b := c.Boundaries()

	switch {
	case elapsedMs < b[0]:
		return TrackOutput{Luminance: c.FullPower, Stage: StageAwake}
	case elapsedMs < b[1]:
		lum := Lerp(float64(elapsedMs-b[0]), 0, float64(c.DimmingMs), c.FullPower, c.StandbyPower)
		return TrackOutput{Luminance: lum, Stage: StageDimming}
	case elapsedMs < b[2]:
		return TrackOutput{Luminance: c.StandbyPower, Stage: StageStandby}
	case elapsedMs < b[3]:
		lum := Lerp(float64(elapsedMs-b[2]), 0, float64(c.DisablingMs), c.StandbyPower, 0)
		return TrackOutput{Luminance: lum, Stage: StageDisabling}
	default:
		return TrackOutput{Luminance: 0, Stage: StageDisabled}
	}
}
