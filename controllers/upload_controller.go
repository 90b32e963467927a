package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dorm-ms/dorm-server/config"
	"github.com/dorm-ms/dorm-server/models"
	"github.com/dorm-ms/dorm-server/utils"
)

// POST /api/students/:id/photo
func UploadStudentPhoto(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	var student models.Student
	if err := config.DB.First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing photo file"})
		return
	}

	fileID := fmt.Sprintf("%d_%s", student.ID, uuid.NewString())
	publicURL, err := utils.UploadStudentPhoto(fileHeader, fileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Upload failed", "error": err.Error()})
		return
	}

	if err := config.DB.Model(&student).UpdateColumn("photo", publicURL).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save photo URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Photo uploaded",
		"url":     publicURL,
	})
}
