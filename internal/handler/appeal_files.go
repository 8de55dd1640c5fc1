package handler

import (
	"mime/multipart"
	"path/filepath"
	"strings"
)

// imageExts lists the accepted image extensions for the mandatory photo
// attached to every new appeal.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// fileExt returns the lowercased extension of an uploaded file.
func fileExt(fh *multipart.FileHeader) string {
	return strings.ToLower(filepath.Ext(fh.Filename))
}

// classifyAppealFiles enforces the appeal attachment policy: exactly two
// files, one image and one PDF (the photo of the premises and the signed
// permission form).  It returns the two classified headers, or a
// non-empty message describing the violation.  The check runs before any
// blob is written so a rejected request leaves no orphaned uploads.
func classifyAppealFiles(files []*multipart.FileHeader) (image, pdf *multipart.FileHeader, errMsg string) {
	if len(files) != 2 {
		return nil, nil, "exactly two files are required: one image and one PDF"
	}
	for _, fh := range files {
		ext := fileExt(fh)
		switch {
		case imageExts[ext] && image == nil:
			image = fh
		case ext == ".pdf" && pdf == nil:
			pdf = fh
		default:
			return nil, nil, "invalid file type '" + fh.Filename + "' or duplicate file type"
		}
	}
	if image == nil || pdf == nil {
		return nil, nil, "one image (JPG, PNG, GIF, BMP) and one PDF file are required"
	}
	return image, pdf, ""
}
