package services

import "errors"

var (
	ErrInvalidRoomType  = errors.New("unknown room type")
	ErrDuplicateRoom    = errors.New("room number already exists")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomBecameFull   = errors.New("room became full")
	ErrRoomHasOccupants = errors.New("room still has assigned students")
	ErrStudentNotFound  = errors.New("student not found")
)
