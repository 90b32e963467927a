package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorm-ms/dorm-server/config"
)

func HealthCheck(c *gin.Context) {
	db := config.DB

	response := gin.H{
		"status":  "ok",
		"message": "Service is healthy",
		"db":      "ok",
	}

	sqlDB, err := db.DB()
	if err != nil {
		response["db"] = "error: cannot get DB instance"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	if err := sqlDB.Ping(); err != nil {
		response["db"] = "error: cannot connect to DB"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
