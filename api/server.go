// Package api is tradeforge's HTTP surface named in spec.md §4.11: gin
// read endpoints over the Market State Store plus admin endpoints gated
// by a JWT session and, for destructive actions, a TOTP step-up code.
// Grounded structurally on an earlier gin.Engine/route-group/gin.H
// JSON-envelope handler shape with a context-carried identity the auth
// middleware sets, rebuilt entirely against this engine's read/admin
// surface.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tradeforge/config"
	"tradeforge/engine"
	"tradeforge/position"
	"tradeforge/store"
)

// Server wraps gin.Engine with the collaborators every handler needs:
// the MSS for reads, the running Engine for admin control, the ledger
// for balance reporting, and the auth material sessions are checked
// against.
type Server struct {
	gin *gin.Engine
	log zerolog.Logger

	store    *store.Store
	eng      *engine.Engine
	ledger   position.Ledger
	settings *SettingsStore

	auth Auth
}

// SettingsStore is the narrow persistence seam admin handlers write
// through: load the active Settings, validate and persist an edit, and
// report the in-memory-only copy back to readers. A nil persister keeps
// edits in memory only, which is how the tests construct it.
type SettingsStore struct {
	persister *store.Persister
	current   config.Settings
}

func NewSettingsStore(p *store.Persister, initial config.Settings) *SettingsStore {
	return &SettingsStore{persister: p, current: initial}
}

func (s *SettingsStore) Get() config.Settings { return s.current }

func (s *SettingsStore) Save(next config.Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if err := config.SaveToStore(s.persister, next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// NewServer builds the gin router and registers every route. auth
// carries the signing key and TOTP secret; see auth.go.
func NewServer(st *store.Store, eng *engine.Engine, ledger position.Ledger, settings *SettingsStore, auth Auth, log zerolog.Logger) *Server {
	s := &Server{
		gin:      gin.New(),
		log:      log,
		store:    st,
		eng:      eng,
		ledger:   ledger,
		settings: settings,
		auth:     auth,
	}
	s.gin.Use(gin.Recovery(), requestLogger(log))
	s.routes()
	return s
}

// Handler returns the http.Handler cmd/engine mounts alongside /ws and
// /metrics.
func (s *Server) Handler() *gin.Engine { return s.gin }

func (s *Server) routes() {
	s.gin.POST("/auth/login", s.handleLogin)

	v1 := s.gin.Group("/api/v1")
	v1.Use(s.requireSession())
	{
		v1.GET("/engine/log", s.handleEngineLog)
		v1.GET("/signals", s.handleSignalHistory)
		v1.GET("/positions", s.handleOpenPositions)
		v1.GET("/trades", s.handleRecentTrades)
		v1.GET("/session/:pair", s.handleSessionProfile)
		v1.GET("/ratchet", s.handleRatchet)
		v1.GET("/scalp", s.handleScalp)
		v1.GET("/balance", s.handleBalance)
		v1.GET("/settings", s.handleGetSettings)
		v1.POST("/dry-run", s.handleDryRun)

		admin := v1.Group("/admin")
		admin.Use(s.requireTOTP())
		{
			admin.POST("/emergency-stop", s.handleEmergencyStop)
			admin.POST("/emergency-stop/clear", s.handleClearEmergencyStop)
			admin.PUT("/settings", s.handlePutSettings)
		}
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("api request")
	}
}
