package handlers

import (
	"github.com/alimgiray/repolens/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Health     *HealthHandler
	Analysis   *AnalysisHandler
	Repository *RepositoryHandler
}

// NewRouter registers the JSON API. apiToken guards the write endpoints when non-empty.
func NewRouter(h Handlers, apiToken string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.NoRoute(NotFound)

	router.GET("/health", h.Health.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/rate-limit", h.Health.RateLimit)

		api.GET("/analyses", h.Analysis.ListAnalyses)
		api.GET("/analyses/:id", h.Analysis.GetAnalysis)
		api.POST("/analyses", middleware.APITokenRequired(apiToken), h.Analysis.CreateAnalysis)

		repos := api.Group("/repositories")
		{
			repos.GET("", h.Repository.ListRepositories)
			repos.GET("/:id/overview", h.Repository.GetOverview)
			repos.GET("/:id/commits", h.Repository.GetCommits)
			repos.GET("/:id/pull-requests", h.Repository.GetPullRequests)
			repos.GET("/:id/issues", h.Repository.GetIssues)
			repos.GET("/:id/contributors", h.Repository.GetContributors)
			repos.GET("/:id/content", h.Repository.GetContent)
			repos.GET("/:id/quality", h.Repository.GetQuality)
			repos.GET("/:id/languages", h.Repository.GetLanguages)
		}
	}

	return router
}
