package patch

// Score maps an impact summary to a bounded risk estimate in [0.2, 1.0].
// Larger changes score lower; a no-op change scores exactly 1.0 and even a
// maximal change never reaches 0. The formula is a contract shared with the
// refactor engine and the CLI, so it must not drift:
//
//	fileFactor = max(0, 1 - files/maxFiles)
//	lineFactor = max(0, 1 - (added+removed)/maxLines)
//	score      = clamp(0.2 + 0.8*(0.5*fileFactor + 0.5*lineFactor), 0, 1)
func Score(impact Impact, t Thresholds) float64 {
	// Zero-value thresholds fall back to the defaults; both must be positive.
	if t.MaxFiles <= 0 {
		t.MaxFiles = DefaultThresholds().MaxFiles
	}
	if t.MaxLines <= 0 {
		t.MaxLines = DefaultThresholds().MaxLines
	}
	fileFactor := 1.0 - float64(impact.FilesChanged)/float64(t.MaxFiles)
	if fileFactor < 0 {
		fileFactor = 0
	}
	lineFactor := 1.0 - float64(impact.Total())/float64(t.MaxLines)
	if lineFactor < 0 {
		lineFactor = 0
	}
	raw := 0.5*fileFactor + 0.5*lineFactor
	score := 0.2 + 0.8*raw
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}
