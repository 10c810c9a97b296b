package assetstore

import "errors"

// Remote operation failures. Every error returned by Store matches exactly one
// of these with errors.Is; ReplaceAsset errors match ErrReplace as well as the
// failing step's sentinel.
var (
	ErrRemoteFetch   = errors.New("failed to get latest release")
	ErrAssetNotFound = errors.New("asset not found in latest release")
	ErrDownload      = errors.New("failed to download asset")
	ErrDelete        = errors.New("failed to delete asset")
	ErrUpload        = errors.New("failed to upload asset")
	ErrReplace       = errors.New("failed to replace asset")
)
