package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleEmergencyStop is spec.md §4.8's emergency stop, wired to
// engine.Engine.EmergencyStop: forbids new entries and force-closes
// every open position at market.
func (s *Server) handleEmergencyStop(c *gin.Context) {
	s.eng.EmergencyStop(time.Now())
	c.JSON(http.StatusOK, gin.H{"emergencyStopped": true})
}

func (s *Server) handleClearEmergencyStop(c *gin.Context) {
	s.eng.ClearEmergencyStop()
	c.JSON(http.StatusOK, gin.H{"emergencyStopped": false})
}

// handlePutSettings validates and persists a full settings replacement,
// the risk-setting/watchlist edit path spec.md §4.11 names. The engine
// itself picks up the new Pairs/thresholds on its next restart; this
// only guarantees the write survives one.
func (s *Server) handlePutSettings(c *gin.Context) {
	next := s.settings.Get()
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.settings.Save(next); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, next)
}
