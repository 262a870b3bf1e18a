package storage

import "errors"

var ErrTooLarge = errors.New("file exceeds the upload size limit")
