package blobstore

import "errors"

var (
	ErrMissingBucketConfig = errors.New("blobstore: bucket and region are required")
	ErrInvalidDataURI      = errors.New("blobstore: invalid data URI")
)
