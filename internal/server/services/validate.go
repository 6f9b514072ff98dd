// Package services contains the server-side business logic: account
// lifecycle, the device registry with its token auth gate, and the share
// fan-out mailbox.
package services

import (
	"fmt"
	"regexp"

	"github.com/beamit-app/beamit-server/internal/common"
)

var (
	usernameRe   = regexp.MustCompile(`^[a-zA-Z0-9]{4,20}$`)
	deviceNameRe = regexp.MustCompile(`^[a-zA-Z0-9-_.]{4,64}$`)
)

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must be 4 to 20 letters and digits", common.ErrValidation)
	}
	return nil
}

func validateDeviceName(name string) error {
	if !deviceNameRe.MatchString(name) {
		return fmt.Errorf("%w: device name must be 4 to 64 characters from [A-Za-z0-9-_.]", common.ErrValidation)
	}
	return nil
}
