// Package lang validates and names the language codes used for
// transcription hints and summary output.
package lang

import (
	"fmt"
	"strings"
)

// languages maps ISO 639-1 codes accepted by Whisper-compatible APIs to
// display names.
var languages = map[string]string{
	"af": "Afrikaans", "ar": "Arabic", "bg": "Bulgarian", "bn": "Bengali",
	"ca": "Catalan", "cs": "Czech", "da": "Danish", "de": "German",
	"el": "Greek", "en": "English", "es": "Spanish", "et": "Estonian",
	"fa": "Persian", "fi": "Finnish", "fr": "French", "gu": "Gujarati",
	"he": "Hebrew", "hi": "Hindi", "hr": "Croatian", "hu": "Hungarian",
	"id": "Indonesian", "it": "Italian", "ja": "Japanese", "kn": "Kannada",
	"ko": "Korean", "lo": "Lao", "lt": "Lithuanian", "lv": "Latvian",
	"mk": "Macedonian", "ml": "Malayalam", "mr": "Marathi", "ms": "Malay",
	"my": "Burmese", "nl": "Dutch", "no": "Norwegian", "pa": "Punjabi",
	"pl": "Polish", "pt": "Portuguese", "ro": "Romanian", "ru": "Russian",
	"sk": "Slovak", "sl": "Slovenian", "sr": "Serbian", "sv": "Swedish",
	"sw": "Swahili", "ta": "Tamil", "te": "Telugu", "th": "Thai",
	"tl": "Tagalog", "tr": "Turkish", "uk": "Ukrainian", "ur": "Urdu",
	"vi": "Vietnamese", "zh": "Chinese",
}

// regional names the locales that read differently from their base language.
var regional = map[string]string{
	"en-us": "American English",
	"en-gb": "British English",
	"fr-ca": "Canadian French",
	"es-mx": "Mexican Spanish",
	"pt-br": "Brazilian Portuguese",
	"pt-pt": "European Portuguese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// Normalize lower-cases a code and uses a hyphen separator.
// "pt_BR", "PT-BR" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// BaseCode strips the region: "pt-BR" -> "pt". Transcription APIs accept
// base codes only.
func BaseCode(code string) string {
	base, _, _ := strings.Cut(Normalize(code), "-")
	return base
}

// Validate accepts empty (auto-detect), ISO 639-1 codes and locales whose
// base code is known.
func Validate(code string) error {
	if code == "" {
		return nil
	}
	if _, ok := languages[BaseCode(code)]; !ok {
		return fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'th', 'en', 'pt-BR'): %w",
			code, ErrInvalid)
	}
	return nil
}

// IsEnglish reports whether code is English or an English locale.
func IsEnglish(code string) bool {
	return code != "" && BaseCode(code) == "en"
}

// DisplayName returns a human-readable name, falling back to the code itself.
func DisplayName(code string) string {
	n := Normalize(code)
	if name, ok := regional[n]; ok {
		return name
	}
	if name, ok := languages[BaseCode(n)]; ok {
		return name
	}
	return code
}
