package env

import "os"

func IsGithubAction() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func IsGithubDebugMode() bool {
	return os.Getenv("RUNNER_DEBUG") == "true"
}

// IsCI reports whether a CI system announced itself through the conventional CI variable.
func IsCI() bool {
	return os.Getenv("CI") == "true" || IsGithubAction()
}

func IsConcurrencyLockDisabled() bool {
	return os.Getenv("I18NMERGE_CONCURRENCY_LOCK_DISABLED") == "true"
}
