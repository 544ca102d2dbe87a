package keylog

import "errors"

// ErrAccessibilityPermission indicates the host must grant Accessibility trust.
var ErrAccessibilityPermission = errors.New("macOS accessibility permission required for keyboard capture")

// ErrSourceUnavailable is returned by the default source on platforms without a keyboard tap.
var ErrSourceUnavailable = errors.New("no keyboard event source available on this platform")
