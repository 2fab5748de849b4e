package storage

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"socialhub/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFilesPerPost caps media attachments on a single post.
const MaxFilesPerPost = 5

var allowedExtensions = map[string]models.FileType{
	".png":  models.FileTypeImage,
	".jpg":  models.FileTypeImage,
	".jpeg": models.FileTypeImage,
	".mp4":  models.FileTypeVideo,
	".mov":  models.FileTypeVideo,
	".webm": models.FileTypeVideo,
}

var allowedMIMEs = map[string]models.FileType{
	"image/png":       models.FileTypeImage,
	"image/jpeg":      models.FileTypeImage,
	"video/mp4":       models.FileTypeVideo,
	"video/quicktime": models.FileTypeVideo,
	"video/webm":      models.FileTypeVideo,
}

const allowedTypesHint = "Only PNG, JPG, JPEG, MP4, MOV and WEBM files are allowed."

// Upload is a received file held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Checked is an upload that passed validation.
type Checked struct {
	Upload
	Ext      string
	Type     models.FileType
	MimeType string
}

// ReadUpload loads a multipart file, refusing anything larger than maxBytes.
func ReadUpload(fh *multipart.FileHeader, maxBytes int64) (Upload, error) {
	if fh.Size > maxBytes {
		return Upload{}, tooLarge(fh.Filename, maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return Upload{}, models.NewInternalError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return Upload{}, models.NewInternalError(err)
	}
	if int64(len(data)) > maxBytes {
		return Upload{}, tooLarge(fh.Filename, maxBytes)
	}
	return Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func tooLarge(name string, maxBytes int64) error {
	return models.NewValidationError(fmt.Sprintf("File %s is too large (max %dMB)", name, maxBytes>>20))
}

// Validate enforces the extension allow-list, the declared MIME allow-list, the size
// ceiling, and that the sniffed content belongs to the same family as the declaration.
func Validate(u Upload, maxBytes int64) (Checked, error) {
	if len(u.Data) == 0 {
		return Checked{}, models.NewValidationError(fmt.Sprintf("File %s is empty", u.Filename))
	}
	if int64(len(u.Data)) > maxBytes {
		return Checked{}, tooLarge(u.Filename, maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	extType, ok := allowedExtensions[ext]
	if !ok {
		return Checked{}, invalidType(u.Filename)
	}

	declared := normalizeContentType(u.ContentType)
	declaredType, ok := allowedMIMEs[declared]
	if !ok || declaredType != extType {
		return Checked{}, invalidType(u.Filename)
	}

	detected := mimetype.Detect(u.Data)
	if familyOf(detected.String()) != string(declaredType) {
		return Checked{}, models.NewValidationError(
			fmt.Sprintf("File %s content does not match its declared type", u.Filename))
	}

	return Checked{Upload: u, Ext: ext, Type: declaredType, MimeType: declared}, nil
}

func invalidType(name string) error {
	return models.NewValidationError(fmt.Sprintf("Invalid file type for %s. %s", name, allowedTypesHint))
}

func familyOf(mimeType string) string {
	family, _, _ := strings.Cut(normalizeContentType(mimeType), "/")
	return family
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}
