package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/renovation-appeals/internal/storage"
)

// KnowledgeHandler lists public reference documents (sample forms,
// regulations) kept in object storage under knowledge_base/{category}/.
// The content is curated out-of-band by uploading straight to the
// bucket; the API only exposes the links.
type KnowledgeHandler struct {
	Store *storage.Store
}

func NewKnowledgeHandler(s *storage.Store) *KnowledgeHandler {
	return &KnowledgeHandler{Store: s}
}

type knowledgeResp struct {
	Category string   `json:"category"`
	Files    []string `json:"files"`
}

// List handles GET /knowledge_base/:category.  An unknown category is
// indistinguishable from an empty one and simply yields no files.
func (h *KnowledgeHandler) List(c echo.Context) error {
	category := c.Param("category")
	keys, err := h.Store.ListByPrefix(c.Request().Context(), storage.KnowledgeBasePrefix(category))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "listing files failed"})
	}
	files := make([]string, 0, len(keys))
	for _, key := range keys {
		files = append(files, h.Store.URL(key))
	}
	return c.JSON(http.StatusOK, knowledgeResp{Category: category, Files: files})
}
