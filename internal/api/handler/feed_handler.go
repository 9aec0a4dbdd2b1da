package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Feed renders the paginated reverse-chronological feed. Open to
// anonymous visitors.
func (h *Handler) Feed(c *gin.Context) {
	page, err := h.posts.Feed(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "feed.html", gin.H{"Feed": page})
}
