package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dorm-ms/dorm-server/config"
	"github.com/dorm-ms/dorm-server/models"
	"github.com/dorm-ms/dorm-server/services"
)

func roomService() *services.RoomService {
	return services.NewRoomService(config.DB)
}

// GET /api/rooms
func ListRooms(c *gin.Context) {
	var rooms []models.Room
	query := config.DB.Model(&models.Room{})

	if pavilion := c.Query("pavilion"); pavilion != "" {
		query = query.Where("pavilion = ?", pavilion)
	}
	if roomType := c.Query("room_type"); roomType != "" {
		query = query.Where("room_type = ?", roomType)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(room_number) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Order("room_number asc").Find(&rooms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  rooms,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GET /api/rooms/available
func GetAvailableRooms(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0")) // 0 = no pagination

	rooms, total, err := roomService().ListAvailable(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list available rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rooms, "total": total})
}

// GET /api/rooms/:number
func GetRoom(c *gin.Context) {
	number := c.Param("number")

	var room models.Room
	if err := config.DB.Where("room_number = ?", number).First(&room).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}

	occ, err := roomService().Occupancy(number)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not compute occupancy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"room":      room,
			"occupancy": occ,
		},
	})
}

// GET /api/rooms/:number/occupancy
func GetRoomOccupancy(c *gin.Context) {
	occ, err := roomService().Occupancy(c.Param("number"))
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not compute occupancy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": occ})
}

// POST /api/rooms
func CreateRoom(c *gin.Context) {
	var req struct {
		RoomNumber string `json:"room_number" binding:"required"`
		Pavilion   string `json:"pavilion" binding:"required"`
		RoomType   string `json:"room_type" binding:"required"`
		// a capacity field sent by the client is ignored, capacity is
		// always derived from room_type
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	room, err := roomService().CreateRoom(req.RoomNumber, req.Pavilion, strings.ToLower(strings.TrimSpace(req.RoomType)))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRoomType):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Room type must be single, double or triple"})
		case errors.Is(err, services.ErrDuplicateRoom):
			c.JSON(http.StatusConflict, gin.H{"message": "Room number already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create room"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Room created", "data": room})
}

// PUT /api/rooms/:number
func UpdateRoom(c *gin.Context) {
	number := c.Param("number")

	var req struct {
		Pavilion *string `json:"pavilion"`
		RoomType *string `json:"room_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	if req.RoomType != nil {
		t := strings.ToLower(strings.TrimSpace(*req.RoomType))
		req.RoomType = &t
	}

	room, err := roomService().UpdateRoom(number, req.Pavilion, req.RoomType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		case errors.Is(err, services.ErrInvalidRoomType):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Room type must be single, double or triple"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update room"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room updated", "data": room})
}

// POST /api/rooms/:number/recalculate
func RecalculateRoom(c *gin.Context) {
	number := c.Param("number")

	isUsed, err := roomService().Recalculate(number)
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not recalculate room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room recalculated", "room_number": number, "is_used": isUsed})
}

// DELETE /api/rooms/:number
func DeleteRoom(c *gin.Context) {
	err := roomService().DeleteRoom(c.Param("number"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		case errors.Is(err, services.ErrRoomHasOccupants):
			c.JSON(http.StatusConflict, gin.H{"message": "Room still has assigned students"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete room"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted"})
}
