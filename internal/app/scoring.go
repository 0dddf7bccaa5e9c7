package app

import "time"

const (
	baseScore        = 100
	speedBonusWindow = 60 // seconds
)

// ComputeScore maps a submission to points. Incorrect answers score zero.
// Correct answers earn the base score plus a speed bonus that decays one
// point per elapsed second and bottoms out at zero. The bonus window is a
// fixed 60 seconds and does not track the configured per-question time
// limit; timeLimitSeconds is accepted for callers that want to log or
// display it alongside the score.
func ComputeScore(correct bool, answeredAt, questionStart time.Time, timeLimitSeconds int) int {
	if !correct {
		return 0
	}
	elapsed := answeredAt.Sub(questionStart).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	bonus := speedBonusWindow - elapsed
	if bonus < 0 {
		bonus = 0
	}
	return int(baseScore + bonus)
}
