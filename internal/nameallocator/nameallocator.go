// Package nameallocator produces collision-free directory and file names
// under a target parent directory (spec.md section 4.2), adapted from the
// teacher's deduplicateFilename/sanitizeFilename pair in
// internal/fs/attachments.go.
package nameallocator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jra3/photosync/internal/fsgateway"
)

// maxBasenameLen caps a sanitized candidate at a conservative basename
// length that is safe across the common target filesystems (ext4, APFS,
// NTFS all allow 255 bytes; we leave room for a "(12345).ext" suffix).
const maxBasenameLen = 200

// Allocator allocates collision-free names under a parent directory using
// the provided Gateway to test existence.
type Allocator struct {
	gw fsgateway.Gateway
}

// New returns an Allocator backed by gw.
func New(gw fsgateway.Gateway) *Allocator {
	return &Allocator{gw: gw}
}

// Allocate returns a name N such that parent+"/"+N does not currently
// exist, derived from desired by the policy in spec.md section 4.2:
// sanitize, then try the bare candidate, then stem(k).ext for k=1,2,....
func (a *Allocator) Allocate(parent, desired string) (string, error) {
	candidate := Sanitize(desired)

	exists, err := a.gw.Exists(join(parent, candidate))
	if err != nil {
		return "", fmt.Errorf("check existence of %s: %w", candidate, err)
	}
	if !exists {
		return candidate, nil
	}

	stem, ext := splitExt(candidate)
	for k := 1; k <= 1_000_000; k++ {
		try := fmt.Sprintf("%s(%d)%s", stem, k, ext)
		exists, err := a.gw.Exists(join(parent, try))
		if err != nil {
			return "", fmt.Errorf("check existence of %s: %w", try, err)
		}
		if !exists {
			return try, nil
		}
	}

	// Pathological case: a million numeric suffixes are all taken (external
	// tampering, or a directory seeded adversarially). Fall back to a
	// random, effectively-unique suffix rather than looping forever.
	fallback := fmt.Sprintf("%s(%s)%s", stem, uuid.NewString()[:8], ext)
	return fallback, nil
}

// Sanitize replaces path separators and control characters with "_", trims
// trailing dots/spaces, and caps length at the platform basename limit.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == 0:
			b.WriteRune('_')
		case r < 0x20:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimRight(b.String(), ". ")
	if s == "" {
		s = "untitled"
	}
	if len(s) > maxBasenameLen {
		stem, ext := splitExt(s)
		keep := maxBasenameLen - len(ext)
		if keep < 1 {
			keep = 1
		}
		if len(stem) > keep {
			stem = stem[:keep]
		}
		s = stem + ext
	}
	return s
}

// StripRenameSuffix strips a trailing "(k)" suffix (k numeric) from a
// recorded on-disk name, so the renamed-collection detector can compare a
// previously-suffixed name against a remote rename target without
// triggering a spurious rename cycle (spec.md section 4.2).
func StripRenameSuffix(name string) string {
	stem, ext := splitExt(name)
	i := strings.LastIndexByte(stem, '(')
	if i < 0 || !strings.HasSuffix(stem, ")") {
		return name
	}
	digits := stem[i+1 : len(stem)-1]
	if digits == "" {
		return name
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return name
		}
	}
	return stem[:i] + ext
}

func splitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return strings.TrimRight(parent, "/") + "/" + name
}
