package httpapi

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(metricsMiddleware(s.handlers.metrics))
	r.Use(cors.New(corsConfig(s.corsOrigins)))

	h := s.handlers

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", s.loginLimiter.Handler(), h.login)
		api.GET("/profile", authMiddleware(s.secret), h.profile)

		records := api.Group("/health-records", authMiddleware(s.secret))
		{
			records.POST("", h.createRecord)
			records.GET("", h.listRecords)
			records.GET("/:id", h.getRecord)
			records.PUT("/:id", h.updateRecord)
			records.DELETE("/:id", h.deleteRecord)
			records.GET("/:id/report", h.downloadReport)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
