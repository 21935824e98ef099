package httptransport

import (
	"errors"
	"net/http"

	"quizcash/internal/game"
	"quizcash/internal/questions"
	"quizcash/internal/spin"
	"quizcash/internal/store"
	"quizcash/internal/wallet"
)

// writeServiceError maps domain sentinels to HTTP. Unknown errors
// become an opaque 500; the request logger carries the detail.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := serviceErrorStatus(err)
	WriteHTTPError(w, status, code)
}

func serviceErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient_funds"
	case errors.Is(err, store.ErrDuplicateReference):
		return http.StatusConflict, "duplicate_reference"
	case errors.Is(err, store.ErrAlreadySettled):
		return http.StatusConflict, "already_settled"
	case errors.Is(err, store.ErrSessionNotActive):
		return http.StatusConflict, "session_not_active"
	case errors.Is(err, store.ErrNoFreeSpins):
		return http.StatusBadRequest, "no_free_spins"
	case errors.Is(err, game.ErrInvalidLevel):
		return http.StatusBadRequest, "invalid_level"
	case errors.Is(err, game.ErrStakeOutOfRange):
		return http.StatusBadRequest, "stake_out_of_range"
	case errors.Is(err, game.ErrNotMultiplayer):
		return http.StatusBadRequest, "not_a_multiplayer_session"
	case errors.Is(err, game.ErrNotParticipant):
		return http.StatusForbidden, "not_a_participant"
	case errors.Is(err, game.ErrSessionBusy):
		return http.StatusConflict, "active_session_exists"
	case errors.Is(err, questions.ErrInsufficientPool):
		return http.StatusConflict, "insufficient_question_pool"
	case errors.Is(err, wallet.ErrAmountOutOfRange):
		return http.StatusBadRequest, "amount_out_of_range"
	case errors.Is(err, wallet.ErrInvalidBankDetails):
		return http.StatusBadRequest, "invalid_bank_details"
	case errors.Is(err, spin.ErrUnknownPackage):
		return http.StatusBadRequest, "unknown_spin_package"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
