package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ViewSharedOrder serves the read-only order view for share token holders. No
// session is required; the token is the credential.
func (s *Server) ViewSharedOrder(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	resp, err := s.shareSvc.Resolve(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
