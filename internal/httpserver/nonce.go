package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agentswarm.treasury/pkg/cryptoutil"
)

// NonceResponse is the body returned by the erc8128 nonce endpoint.
type NonceResponse struct {
	Nonce      string `json:"nonce"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// NonceHandler issues a fresh, unpredictable nonce for a client to embed in
// its next signed request. The nonce store's replay check happens at verify
// time against the value the client actually signs, so this endpoint need
// not touch the store itself.
func NonceHandler(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := cryptoutil.GenerateRandomToken(16)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate nonce"})
			return
		}
		c.JSON(http.StatusOK, NonceResponse{Nonce: token, TTLSeconds: int(ttl.Seconds())})
	}
}

// HealthHandler reports liveness with a fixed {"status":"ok"} body.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
