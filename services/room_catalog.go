package services

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/dorm-ms/dorm-server/models"
)

// RoomService is the source of truth for room identity, type and capacity.
type RoomService struct {
	db *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{db: db}
}

// ResolveCapacity derives a room's capacity from its type. Capacity is
// never caller-supplied; any value sent by a client is discarded.
func ResolveCapacity(roomType string) (int, error) {
	switch roomType {
	case "single":
		return 1, nil
	case "double":
		return 2, nil
	case "triple":
		return 3, nil
	default:
		return 0, ErrInvalidRoomType
	}
}

type RoomOccupancy struct {
	RoomNumber    string `json:"room_number"`
	Capacity      int    `json:"capacity"`
	OccupiedCount int64  `json:"occupied_count"`
	IsUsed        bool   `json:"is_used"`
}

func (s *RoomService) CreateRoom(roomNumber, pavilion, roomType string) (*models.Room, error) {
	capacity, err := ResolveCapacity(roomType)
	if err != nil {
		return nil, err
	}

	room := models.Room{
		RoomNumber: roomNumber,
		Pavilion:   pavilion,
		RoomType:   roomType,
		Capacity:   capacity,
		IsUsed:     false,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Room{}).
			Where("room_number = ?", roomNumber).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateRoom
		}
		return tx.Create(&room).Error
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// UpdateRoom edits pavilion and/or type of an existing room. A type change
// re-derives capacity and recomputes is_used in the same transaction; a
// capacity decrease may leave the room over capacity, current occupants
// are kept and the room simply reads as full.
func (s *RoomService) UpdateRoom(roomNumber string, pavilion, roomType *string) (*models.Room, error) {
	var room *models.Room
	err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := lockRoom(tx, roomNumber)
		if err != nil {
			return err
		}
		if pavilion != nil {
			r.Pavilion = *pavilion
		}
		if roomType != nil && *roomType != r.RoomType {
			capacity, err := ResolveCapacity(*roomType)
			if err != nil {
				return err
			}
			r.RoomType = *roomType
			r.Capacity = capacity
		}
		if err := tx.Save(r).Error; err != nil {
			return err
		}
		isUsed, err := recalcOccupancy(tx, roomNumber)
		if err != nil {
			return err
		}
		r.IsUsed = isUsed
		room = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom refuses to delete a room that still has assigned students,
// so no student is ever left pointing at a room that no longer exists.
func (s *RoomService) DeleteRoom(roomNumber string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockRoom(tx, roomNumber); err != nil {
			return err
		}
		n, err := countOccupants(tx, roomNumber, 0)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrRoomHasOccupants
		}
		return tx.Where("room_number = ?", roomNumber).Delete(&models.Room{}).Error
	})
}

// ListAvailable returns rooms that are not full, ordered by room number.
// limit <= 0 disables pagination.
func (s *RoomService) ListAvailable(page, limit int) ([]models.Room, int64, error) {
	var rooms []models.Room
	var total int64

	q := s.db.Model(&models.Room{}).Where("is_used = ?", false)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q = q.Order("room_number asc")
	if limit > 0 {
		if page <= 0 {
			page = 1
		}
		q = q.Offset((page - 1) * limit).Limit(limit)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

func (s *RoomService) Occupancy(roomNumber string) (*RoomOccupancy, error) {
	var room models.Room
	if err := s.db.Where("room_number = ?", roomNumber).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	n, err := countOccupants(s.db, roomNumber, 0)
	if err != nil {
		return nil, err
	}
	return &RoomOccupancy{
		RoomNumber:    room.RoomNumber,
		Capacity:      room.Capacity,
		OccupiedCount: n,
		IsUsed:        room.IsUsed,
	}, nil
}

// Recalculate recomputes is_used for one room outside any student
// operation (admin repair endpoint). Missing room is reported, not fatal.
func (s *RoomService) Recalculate(roomNumber string) (bool, error) {
	var isUsed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		v, err := recalcOccupancy(tx, roomNumber)
		if err != nil {
			return err
		}
		isUsed = v
		return nil
	})
	if errors.Is(err, ErrRoomNotFound) {
		log.Printf("recalculate: room %s no longer exists, skipping", roomNumber)
		return false, ErrRoomNotFound
	}
	return isUsed, err
}
