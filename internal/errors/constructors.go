package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *ReleaseError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *ReleaseError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pre-flight errors

func PrereqFailed(check string, err error) *ReleaseError {
	return Wrap(err, CategoryPrereq, SeverityFatal, "prerequisite check failed").
		WithContext("check", check)
}

func DirtyWorkingTree() *ReleaseError {
	return New(CategoryGit, SeverityFatal, "working tree is not clean, commit or stash changes first")
}

// Stage errors

func InstallFailed(err error) *ReleaseError {
	return Wrap(err, CategoryInstall, SeverityFatal, "dependency install failed")
}

// OutdatedLockfile is the fixed remap for the lockfile-outdated marker:
// the raw package manager output is replaced, not wrapped alongside.
func OutdatedLockfile() *ReleaseError {
	return New(CategoryInstall, SeverityFatal,
		"the lockfile is outdated, run the package manager install locally and commit the updated lockfile")
}

func TestsFailed(err error) *ReleaseError {
	return Wrap(err, CategoryTests, SeverityFatal, "tests failed")
}

func BumpFailed(err error) *ReleaseError {
	return Wrap(err, CategoryBump, SeverityFatal, "version bump failed")
}

// PublishFailedRolledBack wraps a publish failure after a successful rollback.
func PublishFailedRolledBack(err error) *ReleaseError {
	return Wrap(err, CategoryPublish, SeverityFatal, "publish failed, the project was rolled back")
}

// PublishFailedRollbackFailed wraps a publish failure when rollback itself also failed.
func PublishFailedRollbackFailed(err error, rollbackMsg string) *ReleaseError {
	return Wrap(err, CategoryPublish, SeverityFatal, "publish failed and rollback did not complete").
		WithContext("rollback", rollbackMsg)
}

func TwoFactorFailed(err error) *ReleaseError {
	return Wrap(err, CategoryTwoFactor, SeverityFatal, "enabling two-factor authentication failed")
}

func DraftFailed(err error) *ReleaseError {
	return Wrap(err, CategoryDraft, SeverityFatal, "release draft failed")
}

// Infrastructure errors

func GitOperationFailed(op string, err error) *ReleaseError {
	return Wrap(err, CategoryGit, SeverityError, "git operation failed").
		WithContext("operation", op)
}

func Internal(message string, err error) *ReleaseError {
	return Wrap(err, CategoryInternal, SeverityError, message)
}
