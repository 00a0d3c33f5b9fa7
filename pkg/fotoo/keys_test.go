package fotoo_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
)

func TestBuildProcessedKey(t *testing.T) {
	ts := time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC)

	key := fotoo.BuildProcessedKey("alice", ts, "alice/2024/03/07/tok_IMG_0001.heic", "jpg")
	assert.Regexp(t,
		regexp.MustCompile(`^alice/processed/2024/03/07/[0-9a-f-]{36}_tok_IMG_0001\.jpg$`),
		key)
}

func TestBuildProcessedKeyUsesUTCDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Local date is Dec 31, UTC date is Jan 1.
	ts := time.Date(2023, 12, 31, 22, 0, 0, 0, loc)
	key := fotoo.BuildProcessedKey("bob", ts, "x.mov", "mp4")
	assert.Contains(t, key, "bob/processed/2024/01/01/")
}

func TestBuildProcessedKeyUnique(t *testing.T) {
	ts := time.Now()
	a := fotoo.BuildProcessedKey("u", ts, "k.jpg", "jpg")
	b := fotoo.BuildProcessedKey("u", ts, "k.jpg", "jpg")
	assert.NotEqual(t, a, b)
}

func TestBuildProcessedKeyNoExtension(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	key := fotoo.BuildProcessedKey("u", ts, "u/2024/06/01/rawfile", "jpg")
	assert.Regexp(t, regexp.MustCompile(`_rawfile\.jpg$`), key)
}

func TestBuildUploadKey(t *testing.T) {
	ts := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	key := fotoo.BuildUploadKey("alice", ts, "IMG 0001 (copy).jpg")
	assert.Regexp(t,
		regexp.MustCompile(`^alice/2024/03/07/[0-9a-f-]{36}_IMG_0001__copy_\.jpg$`),
		key)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IMG_0001.jpg", "IMG_0001.jpg"},
		{"my photo.jpg", "my_photo.jpg"},
		{"été à Paris.heic", "_t____Paris.heic"},
		{"a/b\\c.png", "a_b_c.png"},
		{"weird%20name?.mov", "weird_20name_.mov"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fotoo.SanitizeFilename(tt.in), tt.in)
	}
}
