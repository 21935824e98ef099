package game

import "errors"

var (
	ErrInvalidLevel    = errors.New("invalid_level")
	ErrStakeOutOfRange = errors.New("stake_out_of_range")
	ErrNotParticipant  = errors.New("not_a_participant")
	ErrNotMultiplayer  = errors.New("not_a_multiplayer_session")
	ErrSessionBusy     = errors.New("active_session_exists")
)
