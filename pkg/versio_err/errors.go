// pkg/versio_err/errors.go
//
// Error classification with stable exit codes. Every failure the engine can
// produce belongs to one of the kinds below; nothing is recovered internally.

package versio_err

import (
	"errors"
	"fmt"

	cerr "github.com/cockroachdb/errors"
)

// Kind classifies errors for reporting and exit codes.
type Kind int

const (
	// KindConfig - malformed or contradictory configuration (exit 2)
	KindConfig Kind = iota
	// KindLocation - version value not found or malformed (exit 2)
	KindLocation
	// KindMarkerLost - prior marker is not an ancestor of HEAD (exit 4)
	KindMarkerLost
	// KindPolicyFail - a commit matched a fail-sized type (exit 5)
	KindPolicyFail
	// KindSubdivision - major bump lacks the expected subdirectory (exit 5)
	KindSubdivision
	// KindHook - a configured hook exited non-zero (exit 6)
	KindHook
	// KindPushConflict - the remote moved under us; local work rolled back (exit 7)
	KindPushConflict
	// KindRemoteAuth - the pull-request host rejected our credentials (exit 8)
	KindRemoteAuth
	// KindVCS - any other version-control failure (exit 1)
	KindVCS
)

// ClassifiedError wraps an error with its kind and optional remediation.
type ClassifiedError struct {
	Kind        Kind
	Message     string
	Cause       error
	Remediation []string
}

func (e *ClassifiedError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClassifiedError) Unwrap() error { return e.Cause }

// ExitCode returns the process exit code for this error kind.
func (e *ClassifiedError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindLocation:
		return 2
	case KindMarkerLost:
		return 4
	case KindPolicyFail, KindSubdivision:
		return 5
	case KindHook:
		return 6
	case KindPushConflict:
		return 7
	case KindRemoteAuth:
		return 8
	default:
		return 1
	}
}

// GetExitCode extracts an exit code from any error; 0 for nil, 1 for
// unclassified errors.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.ExitCode()
	}
	return 1
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var classified *ClassifiedError
	return errors.As(err, &classified) && classified.Kind == kind
}

// Remediation returns the attached remediation steps, if any.
func Remediation(err error) []string {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Remediation
	}
	return nil
}

func ConfigError(format string, args ...interface{}) error {
	return &ClassifiedError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

func ConfigErrorWrap(cause error, format string, args ...interface{}) error {
	return &ClassifiedError{Kind: KindConfig, Message: fmt.Sprintf(format, args...), Cause: cerr.WithStack(cause)}
}

func LocationError(cause error, format string, args ...interface{}) error {
	return &ClassifiedError{Kind: KindLocation, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func MarkerLostError(marker string) error {
	return &ClassifiedError{
		Kind:    KindMarkerLost,
		Message: fmt.Sprintf("prior marker %q is not an ancestor of HEAD", marker),
		Remediation: []string{
			"move the marker to a commit on the current branch, or",
			"undo the rebase that rewrote the released history",
		},
	}
}

func PolicyFail(hash, summary string) error {
	return &ClassifiedError{
		Kind:    KindPolicyFail,
		Message: fmt.Sprintf("commit %s is sized \"fail\": %q", shortHash(hash), summary),
	}
}

func SubdivisionError(project string, major uint64, dir string) error {
	return &ClassifiedError{
		Kind:        KindSubdivision,
		Message:     fmt.Sprintf("project %q bumps to major %d but directory %q does not exist", project, major, dir),
		Remediation: []string{fmt.Sprintf("create %q with the new major's sources before releasing", dir)},
	}
}

func HookError(cause error, hook string) error {
	return &ClassifiedError{Kind: KindHook, Message: fmt.Sprintf("hook %q failed", hook), Cause: cause}
}

func PushConflict(cause error) error {
	return &ClassifiedError{
		Kind:        KindPushConflict,
		Message:     "push rejected; the remote advanced during this run",
		Cause:       cause,
		Remediation: []string{"pull the remote changes and run release again"},
	}
}

func RemoteAuthError(cause error, host string) error {
	return &ClassifiedError{
		Kind:        KindRemoteAuth,
		Message:     fmt.Sprintf("authentication to %s failed", host),
		Cause:       cause,
		Remediation: []string{"set GITHUB_TOKEN or configure an auth token in your preferences"},
	}
}

func VCSError(cause error, format string, args ...interface{}) error {
	return &ClassifiedError{Kind: KindVCS, Message: fmt.Sprintf(format, args...), Cause: cerr.WithStack(cause)}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
