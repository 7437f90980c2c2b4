package subscription

// Unlimited indicates no limit for a resource (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// MaxResumesFor returns the resume limit for a plan level.
// Unknown levels get the free limit.
func MaxResumesFor(level SubscriptionLevel) int64 {
	switch level {
	case LevelOneTime:
		return 1
	case LevelPro:
		return 3
	case LevelProPlus:
		return Unlimited
	}
	return 1
}

// CanCreateResume reports whether a user on the given level may create
// another resume given their current count.
func CanCreateResume(level SubscriptionLevel, currentCount int64) bool {
	limit := MaxResumesFor(level)
	if limit == Unlimited {
		return true
	}
	return currentCount < limit
}

// CanUseAITools reports whether AI-assisted generation is available.
// Every paid level has it; free does not.
func CanUseAITools(level SubscriptionLevel) bool {
	return level != LevelFree
}

// CanUseCustomizations reports whether design customizations are available.
// Pro Plus only.
func CanUseCustomizations(level SubscriptionLevel) bool {
	return level == LevelProPlus
}
