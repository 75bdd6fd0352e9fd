package game

import "errors"

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrCharacterDead     = errors.New("character is dead")
	ErrCharacterExists   = errors.New("character already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrNoExit            = errors.New("no exit in that direction")
	ErrNoDoor            = errors.New("there is no door there")
	ErrDoorClosed        = errors.New("the door is closed")
	ErrDoorLocked        = errors.New("the door is locked")
	ErrStunned           = errors.New("you are stunned")
	ErrFighting          = errors.New("you are fighting")
	ErrNotInRoom         = errors.New("they are not here")
	ErrUnknownFactory    = errors.New("unknown factory")
	ErrWorldClosed       = errors.New("world is shut down")
)
