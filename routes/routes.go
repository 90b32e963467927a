package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dorm-ms/dorm-server/controllers"
	"github.com/dorm-ms/dorm-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimitLogin(), controllers.Login)
			auth.POST("/register", middleware.AuthJWT(), middleware.RequireAdmin(), controllers.Register)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthJWT())
		{
			protected.GET("/me", controllers.Me)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/users", controllers.ListUsers)
			admin.PUT("/users/:id", controllers.UpdateUser)
			admin.DELETE("/users/:id", controllers.DeleteUser)
		}

		students := api.Group("/students")
		students.Use(middleware.AuthJWT())
		{
			students.GET("", controllers.ListStudents)
			students.POST("", controllers.CreateStudent)
			students.POST("/export", controllers.CreateExport)
			students.POST("/import", controllers.ImportStudentsXLSX)
			students.GET("/:id", controllers.GetStudent)
			students.PUT("/:id", controllers.UpdateStudent)
			students.DELETE("/:id", controllers.DeleteStudent)
			students.PUT("/:id/room", controllers.AssignStudentRoom)
			students.DELETE("/:id/room", controllers.UnassignStudentRoom)
			students.GET("/:id/history", controllers.GetStudentRoomHistory)
			students.POST("/:id/photo", controllers.UploadStudentPhoto)
		}
		api.GET("/exports/:job_id", middleware.AuthJWT(), controllers.GetExport)

		rooms := api.Group("/rooms")
		rooms.Use(middleware.AuthJWT())
		{
			rooms.GET("", controllers.ListRooms)
			rooms.GET("/available", controllers.GetAvailableRooms)
			rooms.POST("", middleware.RequireAdmin(), controllers.CreateRoom)
			rooms.GET("/:number", controllers.GetRoom)
			rooms.GET("/:number/occupancy", controllers.GetRoomOccupancy)
			rooms.PUT("/:number", middleware.RequireAdmin(), controllers.UpdateRoom)
			rooms.POST("/:number/recalculate", middleware.RequireAdmin(), controllers.RecalculateRoom)
			rooms.DELETE("/:number", middleware.RequireAdmin(), controllers.DeleteRoom)
		}

		filieres := api.Group("/filieres")
		filieres.Use(middleware.AuthJWT())
		{
			filieres.GET("", controllers.ListFilieres)
			filieres.POST("", middleware.RequireAdmin(), controllers.CreateFiliere)
			filieres.PUT("/:id", middleware.RequireAdmin(), controllers.UpdateFiliere)
			filieres.DELETE("/:id", middleware.RequireAdmin(), controllers.DeleteFiliere)
		}
	}
}
