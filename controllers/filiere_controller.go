package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dorm-ms/dorm-server/config"
	"github.com/dorm-ms/dorm-server/models"
)

// GET /api/filieres
func ListFilieres(c *gin.Context) {
	var filieres []models.Filiere
	if err := config.DB.Order("name asc").Find(&filieres).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list filieres"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": filieres})
}

// POST /api/filieres
func CreateFiliere(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	var count int64
	config.DB.Model(&models.Filiere{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Filiere already exists"})
		return
	}

	filiere := models.Filiere{Name: req.Name}
	if err := config.DB.Create(&filiere).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create filiere"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Filiere created", "data": filiere})
}

// PUT /api/filieres/:id
func UpdateFiliere(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid filiere id"})
		return
	}

	var filiere models.Filiere
	if err := config.DB.First(&filiere, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Filiere not found"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	var count int64
	config.DB.Model(&models.Filiere{}).
		Where("name = ? AND id != ?", req.Name, filiere.ID).
		Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Filiere already exists"})
		return
	}

	filiere.Name = req.Name
	if err := config.DB.Save(&filiere).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update filiere"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Filiere updated", "data": filiere})
}

// DELETE /api/filieres/:id
func DeleteFiliere(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid filiere id"})
		return
	}

	// refuse while students still reference this filiere
	var students int64
	config.DB.Model(&models.Student{}).Where("filiere_id = ?", id).Count(&students)
	if students > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Filiere still has students"})
		return
	}

	res := config.DB.Delete(&models.Filiere{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete filiere"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Filiere not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Filiere deleted"})
}
