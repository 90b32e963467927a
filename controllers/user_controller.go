package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dorm-ms/dorm-server/config"
	"github.com/dorm-ms/dorm-server/middleware"
	"github.com/dorm-ms/dorm-server/models"
	"github.com/dorm-ms/dorm-server/utils"
)

// GET /api/admin/users
func ListUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Order("username asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

// PUT /api/admin/users/:id
func UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	if req.Username != nil && *req.Username != "" {
		user.Username = *req.Username
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not hash password"})
			return
		}
		user.Password = hash
	}
	if req.Role != nil {
		if *req.Role != "admin" && *req.Role != "user" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Role must be admin or user"})
			return
		}
		user.Role = *req.Role
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated", "data": user})
}

// DELETE /api/admin/users/:id
func DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	// an admin cannot delete their own account
	u := c.MustGet(middleware.CtxUser).(models.User)
	if u.ID == uint(id) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot delete your own account"})
		return
	}

	res := config.DB.Delete(&models.User{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete user"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
