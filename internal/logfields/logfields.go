package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyCommand    = "command"
	KeyVersion    = "version"
	KeyTag        = "tag"
	KeyBranch     = "branch"
	KeyPackage    = "package"
	KeyDurationMS = "duration_ms"
	KeyExitCode   = "exit_code"
	KeyReason     = "reason"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(title string) slog.Attr    { return slog.String(KeyStage, title) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Package(name string) slog.Attr   { return slog.String(KeyPackage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
