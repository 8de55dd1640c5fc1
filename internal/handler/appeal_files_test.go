package handler

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fh(name string) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name}
}

func TestClassifyAppealFilesAccepts(t *testing.T) {
	image, pdf, msg := classifyAppealFiles([]*multipart.FileHeader{fh("flat.JPG"), fh("form.pdf")})
	require.Empty(t, msg)
	assert.Equal(t, "flat.JPG", image.Filename)
	assert.Equal(t, "form.pdf", pdf.Filename)
}

func TestClassifyAppealFilesOrderIndependent(t *testing.T) {
	image, pdf, msg := classifyAppealFiles([]*multipart.FileHeader{fh("form.pdf"), fh("flat.png")})
	require.Empty(t, msg)
	assert.Equal(t, "flat.png", image.Filename)
	assert.Equal(t, "form.pdf", pdf.Filename)
}

func TestClassifyAppealFilesWrongCount(t *testing.T) {
	_, _, msg := classifyAppealFiles(nil)
	assert.NotEmpty(t, msg)

	_, _, msg = classifyAppealFiles([]*multipart.FileHeader{fh("a.jpg")})
	assert.NotEmpty(t, msg)

	_, _, msg = classifyAppealFiles([]*multipart.FileHeader{fh("a.jpg"), fh("b.pdf"), fh("c.pdf")})
	assert.NotEmpty(t, msg)
}

func TestClassifyAppealFilesDuplicateType(t *testing.T) {
	_, _, msg := classifyAppealFiles([]*multipart.FileHeader{fh("a.jpg"), fh("b.png")})
	assert.NotEmpty(t, msg)

	_, _, msg = classifyAppealFiles([]*multipart.FileHeader{fh("a.pdf"), fh("b.pdf")})
	assert.NotEmpty(t, msg)
}

func TestClassifyAppealFilesUnknownExtension(t *testing.T) {
	_, _, msg := classifyAppealFiles([]*multipart.FileHeader{fh("a.exe"), fh("b.pdf")})
	assert.NotEmpty(t, msg)
}

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, validatePassword("Passw0rd"))
	assert.NotEmpty(t, validatePassword("short1A"))
	assert.NotEmpty(t, validatePassword("alllowercase1"))
	assert.NotEmpty(t, validatePassword("NoDigitsHere"))
}
