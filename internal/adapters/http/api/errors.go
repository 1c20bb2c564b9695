package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrMissingVoter    = errors.New("missing X-Voter-ID header")
	ErrMissingEventID  = errors.New("missing event_id")
	ErrMissingCategory = errors.New("missing category")
	ErrMissingPhoto    = errors.New("missing photo id")
	ErrEventNotFound   = errors.New("event not found")
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrNotMember       = errors.New("voter is not a member of the event")
	ErrNotRanking      = errors.New("event is not in its ranking phase")
	ErrQuotaExhausted  = errors.New("session quota exhausted for this category")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidPair     = errors.New("pair is not judgeable by this voter")
	ErrInvalidWinner   = errors.New("winner is not part of the pair")
)
