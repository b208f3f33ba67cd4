package ledger

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrAssetExists     = errors.New("asset already registered")
)
