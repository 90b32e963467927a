package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dorm-ms/dorm-server/models"
)

func TestNormalizeRoomNumber(t *testing.T) {
	assert.Nil(t, NormalizeRoomNumber(nil))
	assert.Nil(t, NormalizeRoomNumber(strptr("")))
	assert.Nil(t, NormalizeRoomNumber(strptr("  ")))
	assert.Nil(t, NormalizeRoomNumber(strptr("no room")))
	assert.Nil(t, NormalizeRoomNumber(strptr("Aucune")))

	got := NormalizeRoomNumber(strptr(" A101 "))
	require.NotNil(t, got)
	assert.Equal(t, "A101", *got)
}

func TestCreateStudentUnassignedByDefault(t *testing.T) {
	db := newTestDB(t)

	st := mustCreateStudent(t, db, "S1", nil)
	assert.Nil(t, st.NumChambre)

	// sentinel spellings behave exactly like an absent field
	st2 := mustCreateStudent(t, db, "S2", strptr("no room"))
	assert.Nil(t, st2.NumChambre)

	history, err := NewAssignmentService(db).HistoryForStudent(st2.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateStudentWithRoomFillsIt(t *testing.T) {
	db := newTestDB(t)
	mustCreateRoom(t, db, "A1", "single")

	st := mustCreateStudent(t, db, "S1", strptr("A1"))

	assert.True(t, roomState(t, db, "A1").IsUsed)
	requireInvariant(t, db)

	history, err := NewAssignmentService(db).HistoryForStudent(st.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "A1", history[0].RoomNumber)
	assert.Equal(t, time.Now().Year(), history[0].Year)
}

func TestCreateStudentRejectsMissingRoom(t *testing.T) {
	db := newTestDB(t)

	st := &models.Student{Nom: "S1", Prenom: "T", Matricule: "M1", NumChambre: strptr("Z999")}
	err := NewAssignmentService(db).CreateStudent(st)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// the rejected student row must not exist
	var n int64
	db.Model(&models.Student{}).Count(&n)
	assert.Zero(t, n)
}

func TestFullRoomRejectsSecondStudent(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "A1", "single")
	mustCreateStudent(t, db, "S1", strptr("A1"))

	st2 := &models.Student{Nom: "S2", Prenom: "T", Matricule: "M2", NumChambre: strptr("A1")}
	err := svc.CreateStudent(st2)
	assert.ErrorIs(t, err, ErrRoomFull)
	requireInvariant(t, db)
}

// The full scenario: fill A1, get rejected, vacate, reassign.
func TestAssignUnassignReassignScenario(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "A1", "single")

	s1 := mustCreateStudent(t, db, "S1", nil)
	s2 := mustCreateStudent(t, db, "S2", nil)

	require.NoError(t, svc.AssignStudent(s1.ID, "A1"))
	assert.True(t, roomState(t, db, "A1").IsUsed)

	err := svc.AssignStudent(s2.ID, "A1")
	assert.ErrorIs(t, err, ErrRoomFull)

	require.NoError(t, svc.UnassignStudent(s1.ID))
	assert.False(t, roomState(t, db, "A1").IsUsed)

	require.NoError(t, svc.AssignStudent(s2.ID, "A1"))
	assert.True(t, roomState(t, db, "A1").IsUsed)

	history, err := svc.HistoryForStudent(s2.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "A1", history[0].RoomNumber)

	requireInvariant(t, db)
}

func TestSelfReassignmentIsNotDoubleCounted(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "R101", "single")
	st := mustCreateStudent(t, db, "S1", strptr("R101"))
	require.True(t, roomState(t, db, "R101").IsUsed)

	// the room is full because of this same student; reassigning them to
	// it must not be rejected
	require.NoError(t, svc.AssignStudent(st.ID, "R101"))
	assert.True(t, roomState(t, db, "R101").IsUsed)

	// a no-op reassignment is not a new assignment, no history row
	history, err := svc.HistoryForStudent(st.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestMoveRecomputesBothRooms(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "A1", "single")
	mustCreateRoom(t, db, "B2", "single")
	st := mustCreateStudent(t, db, "S1", strptr("A1"))

	require.NoError(t, svc.AssignStudent(st.ID, "B2"))

	assert.False(t, roomState(t, db, "A1").IsUsed)
	assert.True(t, roomState(t, db, "B2").IsUsed)
	requireInvariant(t, db)
}

func TestHistoryIsAppendOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "R1", "double")
	mustCreateRoom(t, db, "R2", "double")
	st := mustCreateStudent(t, db, "S1", nil)

	require.NoError(t, svc.AssignStudent(st.ID, "R1"))
	require.NoError(t, svc.AssignStudent(st.ID, "R2"))
	require.NoError(t, svc.AssignStudent(st.ID, "R1"))

	history, err := svc.HistoryForStudent(st.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// R1 appears twice, no deduplication
	var r1 int
	for _, h := range history {
		if h.RoomNumber == "R1" {
			r1++
		}
	}
	assert.Equal(t, 2, r1)

	// most recent first
	assert.Equal(t, "R1", history[0].RoomNumber)
	assert.Equal(t, "R2", history[1].RoomNumber)
}

func TestUnassignEmitsNoHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "A1", "single")
	st := mustCreateStudent(t, db, "S1", strptr("A1"))

	require.NoError(t, svc.UnassignStudent(st.ID))

	history, err := svc.HistoryForStudent(st.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1) // only the initial assignment
}

func TestDeleteStudentVacatesRoomAndCascadesHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "R101", "single")
	st := mustCreateStudent(t, db, "S1", strptr("R101"))
	require.True(t, roomState(t, db, "R101").IsUsed)

	require.NoError(t, svc.DeleteStudent(st.ID))

	assert.False(t, roomState(t, db, "R101").IsUsed)

	var n int64
	db.Model(&models.RoomHistory{}).Where("student_id = ?", st.ID).Count(&n)
	assert.Zero(t, n)
	requireInvariant(t, db)
}

func TestDeleteStudentSurvivesMissingRoom(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	st := mustCreateStudent(t, db, "S1", nil)

	// point the student at a room that never existed (legacy data); the
	// delete must still succeed
	require.NoError(t, db.Model(&models.Student{}).
		Where("id = ?", st.ID).
		UpdateColumn("num_chambre", "GHOST").Error)

	require.NoError(t, svc.DeleteStudent(st.ID))

	err := svc.DeleteStudent(st.ID)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestUpdateWithoutRoomFieldKeepsAssignment(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "A1", "single")
	st := mustCreateStudent(t, db, "S1", strptr("A1"))

	st.Nom = "Renamed"
	require.NoError(t, svc.UpdateStudent(st, nil, false))

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, st.ID).Error)
	assert.Equal(t, "Renamed", reloaded.Nom)
	require.NotNil(t, reloaded.NumChambre)
	assert.Equal(t, "A1", *reloaded.NumChambre)
	assert.True(t, roomState(t, db, "A1").IsUsed)
}

// A second admin session edits a student from a copy loaded before another
// session moved them. The vacated room must be the stored one, not the one
// the copy remembers, or the intermediate room stays marked used while empty.
func TestUpdateStudentUsesStoredRoomNotCallerCopy(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "R1", "single")
	mustCreateRoom(t, db, "R2", "single")
	mustCreateRoom(t, db, "R3", "single")
	st := mustCreateStudent(t, db, "S1", strptr("R1"))

	stale := *st // loaded before the move below, still holds R1

	require.NoError(t, svc.AssignStudent(st.ID, "R2"))
	require.True(t, roomState(t, db, "R2").IsUsed)

	require.NoError(t, svc.UpdateStudent(&stale, strptr("R3"), true))

	assert.False(t, roomState(t, db, "R1").IsUsed)
	assert.False(t, roomState(t, db, "R2").IsUsed)
	assert.True(t, roomState(t, db, "R3").IsUsed)
	requireInvariant(t, db)
}

func TestUpdateWithoutRoomFieldKeepsConcurrentAssignment(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "A1", "single")
	st := mustCreateStudent(t, db, "S1", nil)

	stale := *st // unassigned copy

	require.NoError(t, svc.AssignStudent(st.ID, "A1"))

	// a rename from the stale copy must not write the copy's nil room back
	stale.Nom = "Renamed"
	require.NoError(t, svc.UpdateStudent(&stale, nil, false))

	var reloaded models.Student
	require.NoError(t, db.First(&reloaded, st.ID).Error)
	assert.Equal(t, "Renamed", reloaded.Nom)
	require.NotNil(t, reloaded.NumChambre)
	assert.Equal(t, "A1", *reloaded.NumChambre)
	assert.True(t, roomState(t, db, "A1").IsUsed)
}

func TestLockAssignmentRooms(t *testing.T) {
	db := newTestDB(t)
	mustCreateRoom(t, db, "B2", "single")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		// vacated room gone from the catalog: skipped, target still returned
		target, err := lockAssignmentRooms(tx, strptr("GHOST"), strptr("B2"))
		require.NoError(t, err)
		require.NotNil(t, target)
		assert.Equal(t, "B2", target.RoomNumber)

		// missing target is fatal
		_, err = lockAssignmentRooms(tx, nil, strptr("GHOST"))
		assert.ErrorIs(t, err, ErrRoomNotFound)

		// unassign locks only the vacated room, no target to return
		target, err = lockAssignmentRooms(tx, strptr("B2"), nil)
		require.NoError(t, err)
		assert.Nil(t, target)
		return nil
	}))
}

func TestValidateAssignment(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	mustCreateRoom(t, db, "A1", "single")
	st := mustCreateStudent(t, db, "S1", strptr("A1"))

	// unassigning is always valid
	assert.NoError(t, svc.ValidateAssignment(nil, 0))

	assert.ErrorIs(t, svc.ValidateAssignment(strptr("Z999"), 0), ErrRoomNotFound)
	assert.ErrorIs(t, svc.ValidateAssignment(strptr("A1"), 0), ErrRoomFull)

	// the occupant's own row is excluded from the count
	assert.NoError(t, svc.ValidateAssignment(strptr("A1"), st.ID))
}

func TestInvariantAcrossMixedOperations(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(db)
	rooms := NewRoomService(db)
	mustCreateRoom(t, db, "A1", "single")
	mustCreateRoom(t, db, "B1", "double")
	mustCreateRoom(t, db, "C1", "triple")

	s1 := mustCreateStudent(t, db, "S1", strptr("B1"))
	s2 := mustCreateStudent(t, db, "S2", strptr("B1"))
	s3 := mustCreateStudent(t, db, "S3", strptr("C1"))
	requireInvariant(t, db)

	require.NoError(t, svc.AssignStudent(s1.ID, "A1"))
	requireInvariant(t, db)

	require.NoError(t, svc.AssignStudent(s2.ID, "C1"))
	requireInvariant(t, db)

	require.NoError(t, svc.DeleteStudent(s3.ID))
	requireInvariant(t, db)

	_, err := rooms.UpdateRoom("C1", nil, strptr("single"))
	require.NoError(t, err)
	requireInvariant(t, db)

	require.NoError(t, svc.UnassignStudent(s1.ID))
	require.NoError(t, svc.UnassignStudent(s2.ID))
	requireInvariant(t, db)
}
