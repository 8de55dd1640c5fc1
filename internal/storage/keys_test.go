package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSegment(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"Lenina st. 10", "Lenina_st._10"},
		{`a\b/c*d?e:f"g<h>i|j`, "abcdefghij"},
		{"", ""},
		{"  ", "__"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeSegment(tc.in), "input %q", tc.in)
	}
}

func TestAppealObjectKey(t *testing.T) {
	key := AppealObjectKey("ivan petrov", 7, "Lenina st. 10", "photo of flat.jpg")
	assert.Equal(t, "ivan_petrov/7_Lenina_st._10/7_photo_of_flat.jpg", key)
}

func TestChatObjectKey(t *testing.T) {
	key := ChatObjectKey("ivan", 7, "Lenina 10", 33, "doc.pdf")
	assert.Equal(t, "ivan/7_Lenina_10/chat/33/doc.pdf", key)
}

func TestChatKeysShareAppealPrefix(t *testing.T) {
	prefix := AppealPrefix("ivan", 7, "Lenina 10")
	assert.Contains(t, AppealObjectKey("ivan", 7, "Lenina 10", "a.jpg"), prefix)
	assert.Contains(t, ChatObjectKey("ivan", 7, "Lenina 10", 1, "b.pdf"), prefix)
}

func TestKnowledgeBasePrefix(t *testing.T) {
	assert.Equal(t, "knowledge_base/sample_forms/", KnowledgeBasePrefix("sample forms"))
}
