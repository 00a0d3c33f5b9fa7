package fotoo

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BuildProcessedKey returns the storage key for a derived artifact:
//
//	{owner}/processed/{yyyy}/{mm}/{dd}/{token}_{basename}.{ext}
//
// Date parts are UTC components of ts. The random token guarantees two
// derivations of the same asset never collide, so reprocessing never
// reuses a stale key.
func BuildProcessedKey(owner string, ts time.Time, originalKey, ext string) string {
	t := ts.UTC()
	base := strings.TrimSuffix(path.Base(originalKey), path.Ext(originalKey))
	return fmt.Sprintf("%s/processed/%04d/%02d/%02d/%s_%s.%s",
		owner, t.Year(), int(t.Month()), t.Day(), uuid.NewString(), base, ext)
}

// BuildUploadKey returns the storage key for a freshly uploaded original:
//
//	{owner}/{yyyy}/{mm}/{dd}/{token}_{safeName}
//
// The filename is sanitized to the storage key charset before it enters
// any key.
func BuildUploadKey(owner string, ts time.Time, filename string) string {
	t := ts.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s_%s",
		owner, t.Year(), int(t.Month()), t.Day(), uuid.NewString(), SanitizeFilename(filename))
}

// SanitizeFilename substitutes characters outside the storage key charset
// with an underscore.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
