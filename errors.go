package debts

import "errors"

// Error kinds returned by the package. They are always wrapped with context
// and must be tested with errors.Is.
var (
	// ErrValidation reports bad user input: empty name, zero or negative amount, bad configuration.
	ErrValidation = errors.New("invalid input")
	// ErrNegativeBalance reports a movement that would drive a balance below zero.
	ErrNegativeBalance = errors.New("negative balance")
	// ErrFormat reports a malformed import payload.
	ErrFormat = errors.New("malformed payload")
	// ErrPersistence reports a storage read or write failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound reports an unknown debtor.
	ErrNotFound = errors.New("debtor not found")
	// ErrAmbiguous reports a name shared by several debtors.
	ErrAmbiguous = errors.New("ambiguous debtor name")
)
