package services

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dorm-ms/dorm-server/models"
)

// noRoomSentinels: older data and form submissions used these literals
// interchangeably for "unassigned".
var noRoomSentinels = map[string]bool{
	"":        true,
	"no room": true,
	"aucune":  true,
}

// NormalizeRoomNumber maps every "no room" spelling to nil so the rest of
// the engine only ever sees nil or a concrete room number.
func NormalizeRoomNumber(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if noRoomSentinels[strings.ToLower(v)] {
		return nil
	}
	return &v
}

// lockRoom loads the room row for update. Row locking only exists on
// postgres; on sqlite (tests) the transaction itself is the lock.
func lockRoom(tx *gorm.DB, roomNumber string) (*models.Room, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room models.Room
	if err := q.Where("room_number = ?", roomNumber).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// lockStudent loads the student row for update inside a transaction. The
// stored num_chambre, not a caller-held copy, is the authoritative prior
// room for any move.
func lockStudent(tx *gorm.DB, studentID uint) (*models.Student, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var st models.Student
	if err := q.First(&st, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &st, nil
}

// lockAssignmentRooms locks the vacated and target rooms of a move in
// room number order, so two opposite moves never wait on each other's
// locks. A vacated room that no longer exists is skipped; a missing
// target room is an error. Returns the target room when one was asked for.
func lockAssignmentRooms(tx *gorm.DB, vacated, target *string) (*models.Room, error) {
	type entry struct {
		number string
		target bool
	}
	var rooms []entry
	if vacated != nil {
		rooms = append(rooms, entry{*vacated, false})
	}
	if target != nil && (vacated == nil || *vacated != *target) {
		rooms = append(rooms, entry{*target, true})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].number < rooms[j].number })

	var targetRoom *models.Room
	for _, e := range rooms {
		room, err := lockRoom(tx, e.number)
		if err != nil {
			if !e.target && errors.Is(err, ErrRoomNotFound) {
				continue
			}
			return nil, err
		}
		if e.target {
			targetRoom = room
		}
	}
	return targetRoom, nil
}

// countOccupants counts students currently assigned to the room.
// excludeStudentID skips the requesting student's own row so that a
// reassignment to the same room is not double-counted (0 = exclude nobody).
func countOccupants(tx *gorm.DB, roomNumber string, excludeStudentID uint) (int64, error) {
	var n int64
	q := tx.Model(&models.Student{}).Where("num_chambre = ?", roomNumber)
	if excludeStudentID != 0 {
		q = q.Where("id != ?", excludeStudentID)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// recalcOccupancy recomputes rooms.is_used from the live assignment count.
// Idempotent: with no intervening assignment change it always persists the
// same value. Returns ErrRoomNotFound without writing when the room is gone.
func recalcOccupancy(tx *gorm.DB, roomNumber string) (bool, error) {
	room, err := lockRoom(tx, roomNumber)
	if err != nil {
		return false, err
	}
	n, err := countOccupants(tx, roomNumber, 0)
	if err != nil {
		return false, err
	}
	isUsed := n >= int64(room.Capacity)
	if err := tx.Model(&models.Room{}).
		Where("room_number = ?", roomNumber).
		UpdateColumn("is_used", isUsed).Error; err != nil {
		return false, err
	}
	return isUsed, nil
}

// checkCapacity rejects the assignment when the room is already at
// capacity, counting occupancy without the requesting student.
func checkCapacity(tx *gorm.DB, room *models.Room, excludeStudentID uint, atCommit bool) error {
	n, err := countOccupants(tx, room.RoomNumber, excludeStudentID)
	if err != nil {
		return err
	}
	if n >= int64(room.Capacity) {
		if atCommit {
			return ErrRoomBecameFull
		}
		return ErrRoomFull
	}
	return nil
}
