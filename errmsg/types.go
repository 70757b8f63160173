package errmsg

import "errors"

var (
	NotExist    = errors.New("not exist")
	TooLarge    = errors.New("file too large")
	OpenFailed  = errors.New("open failed")
	ReadFailed  = errors.New("read failed")
	WriteFailed = errors.New("write failed")
	OutOfSpace  = errors.New("out of space")
)
