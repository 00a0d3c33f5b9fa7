package fotoo

import "strings"

// Format is the processing category assigned to an uploaded asset.
type Format int

const (
	// FormatUnsupported means no conversion strategy exists for the asset.
	FormatUnsupported Format = iota
	// FormatHeicLike covers HEIC/HEIF images that need JPEG conversion.
	FormatHeicLike
	// FormatWebImage covers JPEG/PNG/WEBP, already playable in browsers.
	FormatWebImage
	// FormatQuickTime covers .mov containers that need MP4 conversion.
	FormatQuickTime
	// FormatMp4 covers MP4 video, already playable in browsers.
	FormatMp4
)

func (f Format) String() string {
	switch f {
	case FormatHeicLike:
		return "heic"
	case FormatWebImage:
		return "web-image"
	case FormatQuickTime:
		return "quicktime"
	case FormatMp4:
		return "mp4"
	default:
		return "unsupported"
	}
}

// Classify maps a declared MIME type and storage key to a processing
// category. Rules are evaluated in order, first match wins. Pure and total:
// anything unrecognized is FormatUnsupported.
func Classify(mimeType, key string) Format {
	mime := strings.ToLower(mimeType)
	lowerKey := strings.ToLower(key)

	switch {
	case strings.Contains(mime, "heic") || strings.Contains(mime, "heif") ||
		strings.HasSuffix(lowerKey, ".heic") || strings.HasSuffix(lowerKey, ".heif"):
		return FormatHeicLike
	case mime == "image/jpeg" || mime == "image/jpg" || mime == "image/png" || mime == "image/webp":
		return FormatWebImage
	case mime == "video/quicktime" || strings.HasSuffix(lowerKey, ".mov"):
		return FormatQuickTime
	case mime == "video/mp4" || strings.HasSuffix(lowerKey, ".mp4"):
		return FormatMp4
	default:
		return FormatUnsupported
	}
}
