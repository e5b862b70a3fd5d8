package domain

import "strings"

// MediaType clasifica un archivo subido según su extensión.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaDocument MediaType = "document"
	MediaAudio    MediaType = "audio"
	MediaVideo    MediaType = "video"
	MediaOther    MediaType = "other"
)

// Attachment referencia un archivo ya almacenado por el file store.
type Attachment struct {
	Filepath  string    `json:"filepath"`
	Filename  string    `json:"filename"`
	MediaType MediaType `json:"type"`
}

// Extensiones permitidas por categoría. Cualquier otra extensión se rechaza
// en la subida, no se degrada a MediaOther.
var allowedExtensions = map[MediaType][]string{
	MediaImage:    {"png", "jpg", "jpeg", "gif", "webp"},
	MediaDocument: {"pdf", "docx", "txt", "pptx", "md", "csv"},
	MediaAudio:    {"mp3", "wav", "ogg", "m4a", "webm"},
	MediaVideo:    {"mp4", "mov", "avi"},
}

// DetectMediaType devuelve la categoría para un nombre de archivo y si la
// extensión está en la whitelist.
func DetectMediaType(filename string) (MediaType, bool) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return MediaOther, false
	}
	ext := strings.ToLower(filename[idx+1:])
	for mediaType, exts := range allowedExtensions {
		for _, e := range exts {
			if e == ext {
				return mediaType, true
			}
		}
	}
	return MediaOther, false
}
