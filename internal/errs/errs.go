// Package errs defines the error-kind taxonomy for the export engine
// (spec.md section 7). Error kinds are not exception classes: every
// fallible operation returns a plain Go error, and callers that need to
// distinguish a fatal kind from a per-item failure do so with Is/As.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies one of the distinguished error kinds from spec.md section 7.
type Kind int

const (
	// KindUnspecified is never constructed directly; it marks a zero Kind.
	KindUnspecified Kind = iota

	// KindExportFolderDoesNotExist means the export root vanished. Fatal to
	// the current phase; the scheduler resets stage to INIT.
	KindExportFolderDoesNotExist

	// KindExportStopped means cooperative cancellation was observed. Fatal
	// to the current phase; the scheduler proceeds to postExport.
	KindExportStopped

	// KindUpdateExportedRecordFailed means a journal persistence write
	// failed. Fatal to the current phase; propagates to the scheduler.
	KindUpdateExportedRecordFailed

	// KindExportRecordJSONParsingFailed means export_status.json failed to
	// parse. Recovered by one retry after a delay; otherwise fatal.
	KindExportRecordJSONParsingFailed

	// KindSelectFolderAborted means the user dismissed the directory picker.
	KindSelectFolderAborted

	// KindCollectionNotEmpty is an invariant violation during collection
	// removal: the journal still has file entries for the collection.
	KindCollectionNotEmpty

	// KindItemFailure is the catch-all for per-item failures (downloader
	// errors, EXIF update failures, etc). Logged and counted as failed; the
	// phase continues.
	KindItemFailure
)

func (k Kind) String() string {
	switch k {
	case KindExportFolderDoesNotExist:
		return "ExportFolderDoesNotExist"
	case KindExportStopped:
		return "ExportStopped"
	case KindUpdateExportedRecordFailed:
		return "UpdateExportedRecordFailed"
	case KindExportRecordJSONParsingFailed:
		return "ExportRecordJsonParsingFailed"
	case KindSelectFolderAborted:
		return "SelectFolderAborted"
	case KindCollectionNotEmpty:
		return "CollectionNotEmpty"
	case KindItemFailure:
		return "ItemFailure"
	default:
		return "Unspecified"
	}
}

// Error wraps an underlying cause with a Kind and optional context.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %v", e.Kind, e.Context, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error of the given kind wrapping cause.
func New(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// Is reports whether err (or something it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and KindUnspecified otherwise.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return KindUnspecified
	}
	return e.Kind
}

// IsFatalToPhase reports whether kind is one of the three kinds that must
// propagate out of a materializer phase rather than being logged and
// skipped (spec.md section 7 Policy).
func IsFatalToPhase(kind Kind) bool {
	switch kind {
	case KindExportFolderDoesNotExist, KindExportStopped, KindUpdateExportedRecordFailed:
		return true
	default:
		return false
	}
}
