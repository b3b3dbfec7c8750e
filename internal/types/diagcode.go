package types

// Diagnostic codes emitted by the loader and splicer.
// Centralizing these prevents silent breakage from typos in string literals.

// Loader diagnostic codes.
const (
	DiagModuleUnreadable = "module-unreadable"
	DiagModuleEmpty      = "module-empty"
)

// Splicer diagnostic codes.
const (
	DiagVisibleMarkerMissing  = "visible-marker-missing"
	DiagFunctionMarkerMissing = "function-marker-missing"
	DiagUnterminatedFunction  = "unterminated-function"
	DiagRewriteNotApplied     = "rewrite-not-applied"
	DiagRewriteInComment      = "rewrite-in-comment"
)

// AllDiagnosticCodes returns all known diagnostic codes grouped by phase.
func AllDiagnosticCodes() []DiagCodeInfo {
	return []DiagCodeInfo{
		{Code: DiagModuleUnreadable, Phase: "loader"},
		{Code: DiagModuleEmpty, Phase: "loader"},
		{Code: DiagVisibleMarkerMissing, Phase: "splicer"},
		{Code: DiagFunctionMarkerMissing, Phase: "splicer"},
		{Code: DiagUnterminatedFunction, Phase: "splicer"},
		{Code: DiagRewriteNotApplied, Phase: "splicer"},
		{Code: DiagRewriteInComment, Phase: "splicer"},
	}
}

// MatchesKnownCode reports whether pattern matches at least one known
// diagnostic code.
func MatchesKnownCode(pattern string) bool {
	for _, info := range AllDiagnosticCodes() {
		if MatchGlob(pattern, info.Code) {
			return true
		}
	}
	return false
}

// DiagCodeInfo describes a diagnostic code and the phase that emits it.
type DiagCodeInfo struct {
	Code  string
	Phase string
}
