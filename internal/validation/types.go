package validation

// Kind selects how a Check is evaluated.
type Kind string

const (
	KindCommand  Kind = "command_exists"
	KindFile     Kind = "file_exists"
	KindContains Kind = "path_contains"
	KindDevice   Kind = "device"
)

// Check is a single preflight rule. Subject names the configuration key the
// rule was derived from, e.g. "gpg.path".
type Check struct {
	Kind    Kind
	Subject string
	Target  string
	Pattern string
}

// Result captures the outcome of evaluating a single check.
type Result struct {
	Check   Check
	Passed  bool
	Message string
	Error   error
}
