package models

import "errors"

// ErrNotFound is returned when a requested resource does not exist. It also
// covers empty search and autocomplete results, which the API reports as 404.
var ErrNotFound = errors.New("resource does not exist")

// ErrAlreadyExists is returned when a unique attribute is already in use.
var ErrAlreadyExists = errors.New("resource already exists")

// ErrInvalidCredentials is returned on failed logins, without revealing
// whether the username exists.
var ErrInvalidCredentials = errors.New("invalid credentials")
