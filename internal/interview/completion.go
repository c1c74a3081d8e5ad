package interview

// DefaultMinimumAnswers is the floor applied on top of the planned count.
const DefaultMinimumAnswers = 8

// IsComplete reports whether the interview may end. Both the plan and the
// floor must be met: follow-ups can inflate the number of asked questions
// without a matching number of answers to main questions.
func IsComplete(answered, planned, minimumFloor int) bool {
	return answered >= planned && answered >= minimumFloor
}
