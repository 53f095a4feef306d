package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicActor annotates the New Relic transaction started by nrgin with the
// authenticated caller and reports handler errors. A request without a
// transaction passes through untouched.
func NewRelicActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if actor, role := Actor(c); actor != "" {
			txn.AddAttribute("actor", actor)
			txn.AddAttribute("role", string(role))
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
