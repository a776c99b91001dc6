package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleEngineLog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": s.store.EngineLog()})
}

func (s *Server) handleSignalHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": s.store.SignalHistory()})
}

func (s *Server) handleOpenPositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": s.store.OpenPositions()})
}

func (s *Server) handleRecentTrades(c *gin.Context) {
	n := 50
	if err := bindLimit(c, &n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": s.store.RecentTrades(n)})
}

func (s *Server) handleSessionProfile(c *gin.Context) {
	pair := c.Param("pair")
	c.JSON(http.StatusOK, s.store.SessionProfile(pair))
}

func (s *Server) handleRatchet(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Ratchet())
}

func (s *Server) handleScalp(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Scalp())
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Get())
}

func (s *Server) handleBalance(c *gin.Context) {
	bal, _ := s.ledger.Balance().Float64()
	c.JSON(http.StatusOK, gin.H{"balance": bal})
}

func bindLimit(c *gin.Context, n *int) error {
	q := c.Query("limit")
	if q == "" {
		return nil
	}
	v, err := parsePositiveInt(q)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func parsePositiveInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be positive, got %d", v)
	}
	return v, nil
}
