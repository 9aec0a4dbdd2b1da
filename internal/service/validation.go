package service

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/d60-Lab/microblog/internal/model"
)

// MaxImageBytes is the upload ceiling; strictly larger files are rejected.
const MaxImageBytes = 5 * 1024 * 1024

// allowedImageExts is compared against the lower-cased filename extension.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// FieldErrors maps form field names to human-readable messages. It is
// pure data: validation never logs, never mutates.
type FieldErrors map[string]string

func (e FieldErrors) Error() string { return "validation failed" }

func (e FieldErrors) add(field, msg string) FieldErrors {
	if e == nil {
		e = FieldErrors{}
	}
	if _, dup := e[field]; !dup {
		e[field] = msg
	}
	return e
}

// validatePostInput checks text and the optional image header. A nil
// image always passes. Returns nil when the input is acceptable.
func validatePostInput(text string, image *multipart.FileHeader) FieldErrors {
	var fe FieldErrors

	if strings.TrimSpace(text) == "" {
		fe = fe.add("text", "Text is required.")
	} else if utf8.RuneCountInString(text) > model.MaxTextLen {
		fe = fe.add("text", fmt.Sprintf("Text must be at most %d characters.", model.MaxTextLen))
	}

	if image != nil {
		ext := strings.ToLower(filepath.Ext(image.Filename))
		if !allowedImageExts[ext] {
			fe = fe.add("image", "Image must be a JPG, PNG or GIF file.")
		}
		if image.Size > MaxImageBytes {
			fe = fe.add("image", "Image file size must be under 5MB.")
		}
	}
	return fe
}
