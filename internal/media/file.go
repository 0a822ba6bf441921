package media

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Category is the coarse media kind that drives normalization.
type Category string

// Media categories.
const (
	CategoryAudio Category = "audio"
	CategoryVideo Category = "video"
	CategoryOther Category = "other"
)

// File is a user-selected media file held in memory. It is never modified.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewFile builds a File, detecting its MIME type from name and content.
func NewFile(name string, data []byte) File {
	return File{Name: name, MIMEType: DetectMIME(name, data), Data: data}
}

// Category classifies the file by MIME prefix.
func (f File) Category() Category {
	switch {
	case strings.HasPrefix(f.MIMEType, "audio/"):
		return CategoryAudio
	case strings.HasPrefix(f.MIMEType, "video/"):
		return CategoryVideo
	default:
		return CategoryOther
	}
}

// Ext returns the lower-cased file extension, or one derived from the MIME
// type when the name has none. Empty if neither is known.
func (f File) Ext() string {
	if ext := strings.ToLower(filepath.Ext(f.Name)); ext != "" {
		return ext
	}
	t := strings.ToLower(stripParams(f.MIMEType))
	if ext, ok := typeExts[t]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(t); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Size returns the file length in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// extraTypes covers containers missing from minimal system MIME tables.
var extraTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".flv":  "video/x-flv",
}

// typeExts is the reverse of extraTypes, with one canonical extension per
// type plus common aliases. Providers infer the container from the upload's
// extension, so host MIME tables must not pick it (".f4a" for audio/mp4).
var typeExts = map[string]string{
	"audio/mpeg":       ".mp3",
	"audio/mp3":        ".mp3",
	"audio/mp4":        ".m4a",
	"audio/x-m4a":      ".m4a",
	"audio/wav":        ".wav",
	"audio/x-wav":      ".wav",
	"audio/wave":       ".wav",
	"audio/ogg":        ".ogg",
	"audio/opus":       ".opus",
	"audio/flac":       ".flac",
	"audio/x-flac":     ".flac",
	"audio/aac":        ".aac",
	"video/webm":       ".webm",
	"audio/webm":       ".webm",
	"video/mp4":        ".mp4",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
	"video/x-msvideo":  ".avi",
	"video/x-flv":      ".flv",
}

// IsMediaName reports whether name has an audio or video extension.
func IsMediaName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	if _, ok := extraTypes[ext]; ok {
		return true
	}
	t := mime.TypeByExtension(ext)
	return strings.HasPrefix(t, "audio/") || strings.HasPrefix(t, "video/")
}

// DetectMIME returns the media type for a file, without parameters.
// The extension wins; content sniffing is the fallback.
func DetectMIME(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return stripParams(t)
	}
	return stripParams(http.DetectContentType(data))
}

func stripParams(t string) string {
	base, _, _ := strings.Cut(t, ";")
	return strings.TrimSpace(base)
}
