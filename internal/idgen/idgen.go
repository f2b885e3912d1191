package idgen

import "github.com/google/uuid"

// NewFunc produces identifiers; tests may replace it for deterministic ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns an opaque unique identifier.
func New() string { return NewFunc() }
