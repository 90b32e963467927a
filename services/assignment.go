package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/dorm-ms/dorm-server/models"
)

// AssignmentService orchestrates student lifecycle operations so that
// rooms.is_used always equals (occupants >= capacity) after every commit.
// It is the only entry point handlers use to touch num_chambre.
type AssignmentService struct {
	db *gorm.DB
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{db: db}
}

// ValidateAssignment is the side-effect free pre-check: room exists and has
// a free spot once the requesting student's own occupancy is excluded.
// Unassigning (nil room) is always valid. The same check runs again inside
// the commit transaction under a row lock; a failure there surfaces as
// ErrRoomBecameFull instead of ErrRoomFull.
func (s *AssignmentService) ValidateAssignment(roomNumber *string, studentID uint) error {
	if roomNumber == nil {
		return nil
	}
	var room models.Room
	if err := s.db.Where("room_number = ?", *roomNumber).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return checkCapacity(s.db, &room, studentID, false)
}

// CreateStudent persists a new student. st.NumChambre must already be
// normalized (nil = unassigned); when concrete, the assignment is
// validated, recorded in room_history and the room's occupancy recomputed,
// all in one transaction with the insert.
func (s *AssignmentService) CreateStudent(st *models.Student) error {
	st.NumChambre = NormalizeRoomNumber(st.NumChambre)

	if err := s.ValidateAssignment(st.NumChambre, 0); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if st.NumChambre != nil {
			room, err := lockRoom(tx, *st.NumChambre)
			if err != nil {
				return err
			}
			if err := checkCapacity(tx, room, 0, true); err != nil {
				return err
			}
		}
		if err := tx.Create(st).Error; err != nil {
			return err
		}
		if st.NumChambre != nil {
			if err := s.recordHistory(tx, st.ID, *st.NumChambre); err != nil {
				return err
			}
			if _, err := recalcOccupancy(tx, *st.NumChambre); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStudent saves an edited student record. newRoom is the normalized
// target when the request included a room field (roomProvided). The prior
// room is never taken from the caller's copy of the student: the stored
// row is re-read under the commit transaction, so a concurrent move
// cannot leave the room it chose marked used with nobody in it. Both the
// vacated and the target room are recomputed, and a transition to a new
// concrete room appends a history row.
func (s *AssignmentService) UpdateStudent(st *models.Student, newRoom *string, roomProvided bool) error {
	if !roomProvided {
		return s.db.Transaction(func(tx *gorm.DB) error {
			cur, err := lockStudent(tx, st.ID)
			if err != nil {
				return err
			}
			st.NumChambre = cur.NumChambre
			return tx.Save(st).Error
		})
	}

	newRoom = NormalizeRoomNumber(newRoom)

	if err := s.ValidateAssignment(newRoom, st.ID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		cur, err := lockStudent(tx, st.ID)
		if err != nil {
			return err
		}
		prior := cur.NumChambre
		changed := !sameRoom(prior, newRoom)

		if changed {
			target, err := lockAssignmentRooms(tx, prior, newRoom)
			if err != nil {
				return err
			}
			if target != nil {
				if err := checkCapacity(tx, target, st.ID, true); err != nil {
					return err
				}
			}
		}

		st.NumChambre = newRoom
		if err := tx.Save(st).Error; err != nil {
			return err
		}

		if changed {
			if prior != nil {
				if err := s.recalcBestEffort(tx, *prior); err != nil {
					return err
				}
			}
			if newRoom != nil {
				if err := s.recordHistory(tx, st.ID, *newRoom); err != nil {
					return err
				}
				if _, err := recalcOccupancy(tx, *newRoom); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteStudent removes the student, cascades the deletion of their
// history rows and recomputes the vacated room. The student row is
// re-read under the transaction so the vacated room is the one actually
// stored at delete time.
func (s *AssignmentService) DeleteStudent(studentID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		st, err := lockStudent(tx, studentID)
		if err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", st.ID).Delete(&models.RoomHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Student{}, st.ID).Error; err != nil {
			return err
		}
		if st.NumChambre != nil {
			return s.recalcBestEffort(tx, *st.NumChambre)
		}
		return nil
	})
}

// AssignStudent moves the student into roomNumber, superseding any prior
// assignment.
func (s *AssignmentService) AssignStudent(studentID uint, roomNumber string) error {
	st, err := s.getStudent(studentID)
	if err != nil {
		return err
	}
	return s.UpdateStudent(st, &roomNumber, true)
}

// UnassignStudent clears the student's room. No capacity check and no
// history row; the vacated room is recomputed.
func (s *AssignmentService) UnassignStudent(studentID uint) error {
	st, err := s.getStudent(studentID)
	if err != nil {
		return err
	}
	return s.UpdateStudent(st, nil, true)
}

// HistoryForStudent returns the student's assignment audit trail, most
// recent year first.
func (s *AssignmentService) HistoryForStudent(studentID uint) ([]models.RoomHistory, error) {
	var rows []models.RoomHistory
	err := s.db.Where("student_id = ?", studentID).
		Order("year DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (s *AssignmentService) getStudent(studentID uint) (*models.Student, error) {
	var st models.Student
	if err := s.db.First(&st, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (s *AssignmentService) recordHistory(tx *gorm.DB, studentID uint, roomNumber string) error {
	return tx.Create(&models.RoomHistory{
		StudentID:  studentID,
		RoomNumber: roomNumber,
		Year:       time.Now().Year(),
	}).Error
}

// recalcBestEffort recomputes a room that may have been deleted
// concurrently. A missing room must not abort the student operation; the
// student change is still valid even if the room bookkeeping lags. Any
// other storage error still rolls the whole operation back.
func (s *AssignmentService) recalcBestEffort(tx *gorm.DB, roomNumber string) error {
	if _, err := recalcOccupancy(tx, roomNumber); err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			log.Printf("recalc: room %s no longer exists, skipping", roomNumber)
			return nil
		}
		return err
	}
	return nil
}

func sameRoom(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
