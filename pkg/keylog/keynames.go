package keylog

import "strconv"

// macKeyNames maps macOS virtual key codes (HIToolbox kVK_*) to readable names.
var macKeyNames = map[int]string{
	0: "a", 1: "s", 2: "d", 3: "f", 4: "h", 5: "g", 6: "z", 7: "x", 8: "c", 9: "v",
	11: "b", 12: "q", 13: "w", 14: "e", 15: "r", 16: "y", 17: "t",
	18: "1", 19: "2", 20: "3", 21: "4", 22: "6", 23: "5", 24: "=", 25: "9", 26: "7",
	27: "-", 28: "8", 29: "0", 30: "]", 31: "o", 32: "u", 33: "[", 34: "i", 35: "p",
	36: "return", 37: "l", 38: "j", 39: "'", 40: "k", 41: ";", 42: "\\", 43: ",",
	44: "/", 45: "n", 46: "m", 47: ".", 48: "tab", 49: "space", 50: "`", 51: "backspace",
	53: "esc", 54: "right cmd", 55: "cmd", 56: "shift", 57: "caps lock", 58: "alt",
	59: "ctrl", 60: "right shift", 61: "right alt", 62: "right ctrl", 63: "fn",
	65: "keypad .", 67: "keypad *", 69: "keypad +", 71: "clear", 75: "keypad /",
	76: "enter", 78: "keypad -", 81: "keypad =",
	82: "keypad 0", 83: "keypad 1", 84: "keypad 2", 85: "keypad 3", 86: "keypad 4",
	87: "keypad 5", 88: "keypad 6", 89: "keypad 7", 91: "keypad 8", 92: "keypad 9",
	96: "f5", 97: "f6", 98: "f7", 99: "f3", 100: "f8", 101: "f9", 103: "f11",
	105: "f13", 107: "f14", 109: "f10", 111: "f12", 113: "f15", 114: "help",
	115: "home", 116: "page up", 117: "delete", 118: "f4", 119: "end", 120: "f2",
	121: "page down", 122: "f1", 123: "left", 124: "right", 125: "down", 126: "up",
}

// KeyName resolves a macOS virtual key code. Unknown codes render as "key:<code>".
func KeyName(code int) string {
	if name, ok := macKeyNames[code]; ok {
		return name
	}
	return "key:" + strconv.Itoa(code)
}

// Device-dependent modifier bits from IOLLEvent.h (NX_DEVICE*KEYMASK). Unlike the
// shared CGEventFlags masks they distinguish the left and right keys.
const (
	deviceLeftControl  uint64 = 0x00000001
	deviceLeftShift    uint64 = 0x00000002
	deviceRightShift   uint64 = 0x00000004
	deviceLeftCommand  uint64 = 0x00000008
	deviceRightCommand uint64 = 0x00000010
	deviceLeftOption   uint64 = 0x00000020
	deviceRightOption  uint64 = 0x00000040
	deviceRightControl uint64 = 0x00002000

	// kCGEventFlagMaskSecondaryFn; fn has no per-side bit.
	flagSecondaryFn uint64 = 0x00800000
)

const capsLockCode = 57

var modifierMasks = map[int]uint64{
	56: deviceLeftShift,
	60: deviceRightShift,
	59: deviceLeftControl,
	62: deviceRightControl,
	58: deviceLeftOption,
	61: deviceRightOption,
	55: deviceLeftCommand,
	54: deviceRightCommand,
	63: flagSecondaryFn,
}

// modifierTransition turns a flags-changed event for code into key transitions.
// Caps lock reports only physical presses, so each one is a full press and release.
// ok is false for codes that are not modifiers.
func modifierTransition(code int, flags uint64) (types []EventType, ok bool) {
	if code == capsLockCode {
		return []EventType{KeyDown, KeyUp}, true
	}
	mask, ok := modifierMasks[code]
	if !ok {
		return nil, false
	}
	if flags&mask != 0 {
		return []EventType{KeyDown}, true
	}
	return []EventType{KeyUp}, true
}
