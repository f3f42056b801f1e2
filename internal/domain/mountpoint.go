// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strconv"
)

var (
	ErrMissingMountpointID = errors.New("mountpoint id is not set")
	ErrNoVideoTrack        = errors.New("stream has no video track")
)

// Mountpoint is the immutable configuration of the Janus streaming mountpoint.
type Mountpoint struct {
	ID       string `json:"id"`
	Pin      string `json:"-"`
	AdminKey string `json:"-"`
	Secret   string `json:"-"`
	Private  bool   `json:"private"`
}

func (m Mountpoint) Validate() error {
	if m.ID == "" {
		return ErrMissingMountpointID
	}
	return nil
}

// NumericID reports the id as an unsigned integer when it is one.
// Janus expects numeric ids unless the plugin runs with string_ids.
func (m Mountpoint) NumericID() (uint64, bool) {
	n, err := strconv.ParseUint(m.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
