package retrieval

import "errors"

var (
	// ErrBuild reports an empty or inconsistent catalog at build time.
	ErrBuild = errors.New("index build failed")
	// ErrStoreCorrupt reports persisted artifacts that disagree with each other or with the active embedder.
	ErrStoreCorrupt = errors.New("index store corrupt")
	// ErrQuery reports a malformed search request.
	ErrQuery = errors.New("invalid query")
	// ErrNotLoaded is returned when a Context has no index yet. It also matches ErrQuery.
	ErrNotLoaded = notLoadedError{}
)

type notLoadedError struct{}

func (notLoadedError) Error() string { return "index not loaded" }

func (notLoadedError) Is(target error) bool { return target == ErrQuery }
