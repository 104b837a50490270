package cache

import "errors"

var (
	// ErrKeyNotFound se devuelve cuando la clave no existe en el backend
	ErrKeyNotFound = errors.New("cache: key not found")
	// ErrKeyExpired se devuelve cuando la clave existía pero su TTL venció
	ErrKeyExpired = errors.New("cache: key expired")
)

// IsMiss indica si err representa un miss y no una falla del backend
func IsMiss(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrKeyExpired)
}
