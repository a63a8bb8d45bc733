package domain

// Badge labels a leaderboard row from its totals.
func Badge(s UserStats) string {
	switch {
	case s.TotalPoints >= 2000:
		return "Quiz Master"
	case s.TotalPoints >= 1500:
		return "Study Star"
	case s.TotalPoints >= 1000:
		return "Knowledge Seeker"
	case s.ForumAnswers >= 10:
		return "Helper"
	case s.QuizzesCompleted >= 5:
		return "Consistent Learner"
	default:
		return "Rising Star"
	}
}

// Points awarded by the forum and quiz flows.
const (
	AnswerPoints        = 30
	HelpfulAnswerPoints = 60
	PointsPerCorrect    = 20
)
