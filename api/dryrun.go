package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeforge/strategy"
)

// dryRunRequest lets an operator probe a Strategy's entry gate with a
// hand-built set of inputs, without waiting for the tick loop to
// produce a real candidate. No json tags: encoding/json already
// matches by exported field name, and strategy.EntryInputs is the same
// struct the engine itself builds each tick.
type dryRunRequest struct {
	Variant strategy.Variant
	Inputs  strategy.EntryInputs
}

// handleDryRun exercises strategy.For(variant).CheckEntry(inputs)
// directly, the same dispatch attemptViperEntry/attemptHydraEntry use,
// so an operator can see exactly why a hand-built candidate would or
// would not have been accepted.
func (s *Server) handleDryRun(c *gin.Context) {
	var req dryRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !validVariant(req.Variant) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown strategy variant"})
		return
	}

	result := strategy.For(req.Variant).CheckEntry(req.Inputs)
	c.JSON(http.StatusOK, gin.H{
		"accepted": result.Accepted,
		"reason":   result.Reason,
		"position": result.Position,
	})
}

func validVariant(v strategy.Variant) bool {
	switch v {
	case strategy.VariantHydra, strategy.VariantViperStrike, strategy.VariantViperCoil, strategy.VariantViperLunge:
		return true
	default:
		return false
	}
}
