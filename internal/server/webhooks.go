package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	webhookdomain "github.com/smallbiznis/vindisync/internal/webhook/domain"
)

// Vindi does not sign deliveries; the shared key travels in the query string.
const webhookKeyParam = "key"

func (s *Server) HandleVindiWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.webhooks.Ingest(c.Request.Context(), c.Query(webhookKeyParam), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Set("webhook_outcome", string(result.Outcome))

	status := http.StatusOK
	if result.Outcome == webhookdomain.OutcomeDeferred {
		// A non-2xx answer makes Vindi redeliver once the other orders settle.
		status = http.StatusConflict
	}
	c.JSON(status, result)
}
