package configtree

import "errors"

var (
	ErrUnknownPlatform = errors.New("configtree: unknown platform")
	ErrUnknownStage    = errors.New("configtree: unknown stage")
	ErrInvalidPath     = errors.New("configtree: invalid path")
	ErrNoSelection     = errors.New("configtree: no user/brand selected")
	ErrBrandExists     = errors.New("configtree: brand already exists")
	ErrUserExists      = errors.New("configtree: user already exists")
	ErrInvalidName     = errors.New("configtree: name required")
)
