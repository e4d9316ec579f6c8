package domain

import "errors"

var (
	ErrNetworkNotFound = errors.New("network not found")
	ErrNetworkExists   = errors.New("network with this name and content already exists")
	ErrEmptyUpload     = errors.New("uploaded network file is empty")
)
