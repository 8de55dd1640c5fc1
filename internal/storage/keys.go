package storage

import (
	"fmt"
	"strings"
)

// Object keys follow one fixed scheme so every file of an appeal lives
// under a predictable prefix:
//
//	{username}/{appealID}_{address}/{file}            appeal attachments
//	{username}/{appealID}_{address}/chat/{msgID}/{file}  chat attachments
//	knowledge_base/{category}/{file}                  knowledge base
//
// Username and address are sanitized before being used as path segments.

// sanitizeRemove lists the characters stripped from path segments.  They
// are the usual filesystem-reserved set; spaces are replaced with
// underscores separately.
const sanitizeRemove = `\/*?:"<>|`

// SanitizeSegment makes a string safe for use as an object-key path
// segment: reserved characters are removed and spaces become
// underscores.
func SanitizeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case strings.ContainsRune(sanitizeRemove, r):
			// dropped
		case r == ' ':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AppealPrefix is the folder shared by everything uploaded for one
// appeal.
func AppealPrefix(username string, appealID uint64, address string) string {
	return fmt.Sprintf("%s/%d_%s", SanitizeSegment(username), appealID, SanitizeSegment(address))
}

// AppealObjectKey names one appeal attachment.  The appeal id is
// prepended to the sanitized original filename so re-uploads of
// identically named files across appeals never collide.
func AppealObjectKey(username string, appealID uint64, address, filename string) string {
	return fmt.Sprintf("%s/%d_%s", AppealPrefix(username, appealID, address), appealID, SanitizeSegment(filename))
}

// ChatObjectKey names one chat attachment under the message's own
// sub-folder.  Callers pass a generated unique filename, so only the
// folder layout is decided here.
func ChatObjectKey(username string, appealID uint64, address string, messageID uint64, filename string) string {
	return fmt.Sprintf("%s/chat/%d/%s", AppealPrefix(username, appealID, address), messageID, SanitizeSegment(filename))
}

// KnowledgeBasePrefix is the listing prefix for one knowledge-base
// category.
func KnowledgeBasePrefix(category string) string {
	return "knowledge_base/" + SanitizeSegment(category) + "/"
}
