// Package menu holds the request and result types shared by every hop of the
// menu scanning pipeline.
package menu

import (
	"path/filepath"
	"strings"
)

// Multipart field names. Both hops read and write these constants so the
// caller, the proxy and the upstream webhook stay wire compatible.
const (
	// InboundFileField carries the image from the caller to the proxy hop.
	InboundFileField = "menuImage"
	// UpstreamFileField carries the image from the proxy hop to the webhook.
	UpstreamFileField = "file"
	// LanguageField carries the optional target language on both hops.
	LanguageField = "targetLanguage"
)

// DefaultLanguage is used when the caller does not pick a target language.
const DefaultLanguage = "English"

// SupportedLanguages lists the languages offered to end users. The webhook
// accepts free-form tags, so this list is advisory.
var SupportedLanguages = []string{"Chinese", "English", "Japanese", "Korean"}

// UploadPayload is one submitted image. It lives for a single request and is
// never written to disk.
type UploadPayload struct {
	Data           []byte
	Size           int64
	ContentType    string
	FileName       string
	TargetLanguage string
}

// NewUploadPayload builds a payload, filling the declared size from data and
// the language from DefaultLanguage when blank. The content type is kept
// exactly as declared.
func NewUploadPayload(data []byte, contentType, fileName, language string) UploadPayload {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	return UploadPayload{
		Data:           data,
		Size:           int64(len(data)),
		ContentType:    contentType,
		FileName:       strings.TrimSpace(fileName),
		TargetLanguage: language,
	}
}

// PartFileName returns the file name sent with the multipart file part.
func (p UploadPayload) PartFileName() string {
	if name := filepath.Base(p.FileName); p.FileName != "" && name != "." && name != "/" {
		return name
	}
	return "menu" + extensionFor(p.ContentType)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/heic":
		return ".heic"
	case "image/heif":
		return ".heif"
	default:
		return ""
	}
}

// Item is a single dish as exposed to callers.
type Item struct {
	OriginalName   string `json:"originalName"`
	TranslatedName string `json:"translatedName"`
	Description    string `json:"description"`
	IsRecommended  bool   `json:"isRecommended"`
}
