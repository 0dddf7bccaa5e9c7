package domain

import "errors"

var (
	// ErrGameNotFound is returned for lookups of an unknown game id.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFull is returned when a join would exceed the player limit.
	ErrGameFull = errors.New("game is full")
	// ErrGameInProgress is returned when joining a game that already started.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrEmptyName is returned when a join carries a blank player name.
	ErrEmptyName = errors.New("player name is empty")
	// ErrCannotStart is returned when a start request finds no startable game.
	ErrCannotStart = errors.New("game cannot be started")
	// ErrNotInGame is returned when a connection acts without being on the roster.
	ErrNotInGame = errors.New("player not in game")
	// ErrAnswersClosed is returned when an answer arrives outside the answer window.
	ErrAnswersClosed = errors.New("answers are not being accepted")
	// ErrAlreadyAnswered is returned on a duplicate submission for the same question.
	ErrAlreadyAnswered = errors.New("answer already submitted for this question")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrBankEmpty indicates the question bank holds no usable questions.
	ErrBankEmpty = errors.New("question bank is empty")
	// ErrBankMalformed indicates bank data that would corrupt a game, such
	// as a correct index outside the option range.
	ErrBankMalformed = errors.New("question bank is malformed")
)
