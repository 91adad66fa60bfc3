package ref

import "errors"

// Sentinel kinds for reference errors.
var (
	ErrEmptyObjectRef  = errors.New("object reference must not be empty")
	ErrEmptyAppRef     = errors.New("app reference must not be empty")
	ErrAliasWithHashID = errors.New("alias must not be set when the app is given by hash ID")
	ErrInvalidAlias    = errors.New("invalid app alias")
	ErrInvalidAppName  = errors.New("invalid app name")
)
