package api

import (
	"net/http"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/engine"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the engine operations under /api/v1. Every route is
// nested through the full ancestor chain because the store is
// path-addressed.
func SetupRoutes(router *gin.Engine, jwtSecret string, eng engine.Engine) {
	handler := NewEngineHandler(eng)
	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(authMiddleware)
	{
		programs := apiV1.Group("/programs/:programId")
		{
			programs.POST("/duplicate", handler.Duplicate)

			weeks := programs.Group("/weeks/:weekId")
			{
				weeks.POST("/duplicate", handler.Duplicate)
				weeks.GET("/cascade", handler.CascadeCount(domain.KindWeek))
				weeks.DELETE("", handler.CascadeDelete)

				workouts := weeks.Group("/workouts/:workoutId")
				{
					workouts.POST("/duplicate", handler.Duplicate)
					workouts.GET("/cascade", handler.CascadeCount(domain.KindWorkout))
					workouts.DELETE("", handler.CascadeDelete)

					exercises := workouts.Group("/exercises/:exerciseId")
					{
						exercises.POST("/duplicate", handler.Duplicate)
						exercises.GET("/cascade", handler.CascadeCount(domain.KindExercise))
						exercises.DELETE("", handler.CascadeDelete)
					}
				}
			}
		}
	}
}
