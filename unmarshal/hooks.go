package unmarshal

// scalarHooks is the byte-at-a-time scanner used when no accelerated hooks are configured.
type scalarHooks struct{}

func (scalarHooks) SkipWhitespace(data []byte, pos int) int {
	for pos < len(data) {
		switch data[pos] {
		case ' ', '\n', '\r', '\t':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func (scalarHooks) FindQuoteOrEscape(data []byte, pos int) (int, int) {
	for i := pos; i < len(data); i++ {
		switch data[i] {
		case '"':
			return i, -1
		case '\\':
			return -1, i
		}
	}
	return -1, -1
}

func (scalarHooks) FindStructural(data []byte, pos int) int {
	for i := pos; i < len(data); i++ {
		switch data[i] {
		case '{', '}', '[', ']', ':', ',':
			return i
		}
	}
	return -1
}
