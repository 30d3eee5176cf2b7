package api

import (
	"CraveQuest/internal/api/middleware"
	"CraveQuest/internal/pkg/logger"
	"CraveQuest/internal/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(group *HandlersGroup, tokens *security.TokenManager, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r, "/metrics", "/api/ping")

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		apiGroup.GET("/rankings", group.RankingHandler.GetRanking)
		apiGroup.GET("/trends", group.TrendHandler.GetTrends)

		recipeGroup := apiGroup.Group("/recipes")
		{
			recipeGroup.GET("/:id/value", group.ValueHandler.GetValue)

			authGroup := recipeGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware(tokens))
			{
				authGroup.POST("/:id/ratings", group.RatingHandler.SubmitRating)
			}
		}

		// 需要登录 & 拥有 admin 角色
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(middleware.AuthMiddleware(tokens), middleware.CheckRoles("ADMIN"))
		{
			adminGroup.POST("/rankings/refresh", group.RankingHandler.RefreshRankings)
			adminGroup.POST("/rankings/invalidate", group.RankingHandler.InvalidateRankings)
		}
	}

	return r
}
