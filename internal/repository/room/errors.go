package room

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomAlreadyExists   = errors.New("room already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrSourceNotFound      = errors.New("source not found")
	ErrPlayerNotFound      = errors.New("player not found")
)
