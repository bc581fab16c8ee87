package database

import (
	"errors"

	"gorm.io/gorm"
)

// StoreError оборачивает любую ошибку слоя хранения: нарушение
// ограничения, сбой ввода-вывода, битую JSON-колонку. Операция, внутри
// которой он возник, прерывается без частичных видимых эффектов.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsNotFound отличает отсутствие строки от настоящего сбоя хранилища.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
