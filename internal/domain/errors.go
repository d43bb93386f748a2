package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no attempt is active for a session ID.
	ErrSessionNotFound = errors.New("practice session not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrNoQuestions indicates the bank loaded but contained no questions.
	ErrNoQuestions = errors.New("question bank is empty")
	// ErrQuestionNotFound indicates a question ID outside the working set.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAlreadySubmitted rejects mutations after the attempt was submitted.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)
