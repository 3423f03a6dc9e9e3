package signing

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"agentswarm.treasury/internal/domainerrors"
)

const identityContextKey = "signing.identity"

// GinVerify wraps Verifier.Verify as gin middleware: read the body, restore
// it, verify, and set the recovered identity in gin.Context for downstream
// handlers.
func GinVerify(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		identity, err := verifier.Verify(c.Request.Context(), c.Request, body)
		if err != nil {
			status := http.StatusUnauthorized
			var appErr *domainerrors.AppError
			if errors.As(err, &appErr) && appErr.Kind == domainerrors.KindNetworkError {
				status = http.StatusServiceUnavailable
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// IdentityFromContext retrieves the VerifiedIdentity set by GinVerify.
func IdentityFromContext(c *gin.Context) (*VerifiedIdentity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*VerifiedIdentity)
	return identity, ok
}
