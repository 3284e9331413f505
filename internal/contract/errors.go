package contract

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by stores and engines.
var (
	ErrSnapshotNotFound     = errors.New("snapshot not found")
	ErrHistoryNotFound      = errors.New("history not found")
	ErrNonContiguousHistory = errors.New("release sequence numbers are not contiguous")
	ErrTooFewReleases       = errors.New("at least two releases are needed for evolution metrics")
)

// DecodeError reports class bytes that cannot be framed as a class file.
// The extractor skips the class and the snapshot proceeds without it.
type DecodeError struct {
	Entry  string // archive entry or file path, may be empty
	Offset int    // byte offset where decoding stopped
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("decode class at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("decode class %s at offset %d: %s", e.Entry, e.Offset, e.Reason)
}

// MissingCollaboratorDataError reports a referenced class that is not part of the
// analyzed set. It is never fatal; the reference is left out of internal edges.
type MissingCollaboratorDataError struct {
	Class string
	Ref   string
	Kind  string // superclass, interface or dependency
}

func (e *MissingCollaboratorDataError) Error() string {
	return fmt.Sprintf("%s %s of %s is not in the analyzed class set", e.Kind, e.Ref, e.Class)
}

// VersionExtractionError wraps the failure of one release during extraction.
type VersionExtractionError struct {
	System string
	RSN    int
	Err    error
}

func (e *VersionExtractionError) Error() string {
	return fmt.Sprintf("extract %s release %d: %v", e.System, e.RSN, e.Err)
}

func (e *VersionExtractionError) Unwrap() error { return e.Err }

// AncestorLookupError reports a class whose first appearance cannot be found.
type AncestorLookupError struct {
	System string
	Class  string
	RSN    int
}

func (e *AncestorLookupError) Error() string {
	return fmt.Sprintf("no first appearance of %s for %s release %d", e.Class, e.System, e.RSN)
}
