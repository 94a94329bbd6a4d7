package modelstore

import "errors"

var (
	ErrModelNotFound   = errors.New("model artifact not found")
	ErrCorruptArtifact = errors.New("corrupt model artifact")
	ErrStorageWrite    = errors.New("model storage write failed")
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrNameCollision   = errors.New("symbols share an artifact name")
)
