package hotkeys

// Rawcode tables for the representable key set: modifiers, letters, digits,
// space and backtick. Modifiers map to both their left and right variants.
// Anything else returns nil and the binding is skipped at registration.

var modifierRawcodes = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN
	"win":   {91, 92},
	"super": {91, 92},
}

func keyNameToRawcodes(name string) []uint16 {
	if codes, ok := modifierRawcodes[name]; ok {
		return codes
	}

	switch name {
	case "space":
		return []uint16{32} // VK_SPACE
	case "`", "backtick":
		return []uint16{192} // VK_OEM_3
	}

	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c - 'a' + 65)} // VK_A..VK_Z
		case c >= '0' && c <= '9':
			return []uint16{uint16(c - '0' + 48)} // VK_0..VK_9
		}
	}
	return nil
}
