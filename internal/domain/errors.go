package domain

import "errors"

var (
	// ErrInvalidPreferences: a malformed preference record reached the scorer or a boundary.
	ErrInvalidPreferences = errors.New("invalid preferences")
	// ErrInvalidExtraction: the extraction adapter returned a response of the wrong shape.
	ErrInvalidExtraction = errors.New("invalid extraction")
	// ErrExtractionTransport: the extraction call failed on the network or its reply was not JSON.
	ErrExtractionTransport = errors.New("extraction transport failure")
	// ErrPersistenceRead: a stored value could not be read or parsed.
	ErrPersistenceRead = errors.New("persistence read failure")
)
