package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dorm-ms/dorm-server/models"
)

// newTestDB opens a private in-memory database per test and migrates the
// tables the engine touches.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Filiere{},
		&models.Room{},
		&models.Student{},
		&models.RoomHistory{},
	))
	return db
}

func mustCreateRoom(t *testing.T, db *gorm.DB, number, roomType string) *models.Room {
	t.Helper()
	room, err := NewRoomService(db).CreateRoom(number, "A", roomType)
	require.NoError(t, err)
	return room
}

func mustCreateStudent(t *testing.T, db *gorm.DB, nom string, room *string) *models.Student {
	t.Helper()
	st := &models.Student{
		Nom:        nom,
		Prenom:     "Test",
		Matricule:  "M-" + nom,
		NumChambre: room,
	}
	require.NoError(t, NewAssignmentService(db).CreateStudent(st))
	return st
}

func roomState(t *testing.T, db *gorm.DB, number string) models.Room {
	t.Helper()
	var room models.Room
	require.NoError(t, db.Where("room_number = ?", number).First(&room).Error)
	return room
}

// requireInvariant asserts the core property: for every room,
// is_used == (occupants >= capacity).
func requireInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var rooms []models.Room
	require.NoError(t, db.Find(&rooms).Error)
	for _, room := range rooms {
		var n int64
		require.NoError(t, db.Model(&models.Student{}).
			Where("num_chambre = ?", room.RoomNumber).
			Count(&n).Error)
		require.Equalf(t, n >= int64(room.Capacity), room.IsUsed,
			"room %s: is_used=%v but %d/%d occupants", room.RoomNumber, room.IsUsed, n, room.Capacity)
	}
}

func strptr(s string) *string { return &s }
