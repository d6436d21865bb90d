package console

// parseArgs splits a console line into words. Single and double quotes group
// words and a backslash escapes the next rune. ok is false for an unclosed
// quote or a trailing backslash.
func parseArgs(line string) (args []string, ok bool) {
	type state uint8
	const (
		stNone state = iota
		stSingle
		stDouble
		stEscape
	)

	var cur []rune
	quoted := false
	st := stNone
	prev := stNone

	flush := func() {
		if len(cur) == 0 && !quoted {
			return
		}
		args = append(args, string(cur))
		cur = cur[:0]
		quoted = false
	}

	for _, r := range line {
		switch st {
		case stEscape:
			cur = append(cur, r)
			st = prev
			continue
		case stSingle:
			if r == '\'' {
				st = stNone
				continue
			}
			cur = append(cur, r)
			continue
		case stDouble:
			switch r {
			case '"':
				st = stNone
			case '\\':
				prev, st = stDouble, stEscape
			default:
				cur = append(cur, r)
			}
			continue
		}

		switch r {
		case '\\':
			prev, st = stNone, stEscape
		case '\'':
			quoted = true
			st = stSingle
		case '"':
			quoted = true
			st = stDouble
		case ' ', '\t':
			flush()
		default:
			cur = append(cur, r)
		}
	}
	if st != stNone {
		return nil, false
	}
	flush()
	return args, true
}
