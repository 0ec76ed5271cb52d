package codequality

// ComplexityGrade maps an average cyclomatic complexity to a letter grade
func ComplexityGrade(avg float64) string {
	switch {
	case avg <= 5:
		return "A"
	case avg <= 10:
		return "B"
	case avg <= 20:
		return "C"
	case avg <= 30:
		return "D"
	default:
		return "F"
	}
}

// MaintainabilityGrade maps a maintainability index (0-100) to a letter grade
func MaintainabilityGrade(mi float64) string {
	switch {
	case mi >= 20:
		return "A"
	case mi >= 10:
		return "B"
	case mi >= 0:
		return "C"
	default:
		return "F"
	}
}
