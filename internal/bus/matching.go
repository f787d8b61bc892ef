package bus

type matchState struct {
	i, j int
}

// IsMatching reports whether topic satisfies pattern. '*' matches any run of
// bytes including none, '?' matches exactly one byte and every other byte
// matches itself. The topic is treated as a flat byte sequence.
func IsMatching(topic, pattern []byte) bool {
	return isMatching(topic, pattern)
}

func isMatching[S ~string | ~[]byte](topic, pattern S) bool {
	var buf [16]matchState
	stack := append(buf[:0], matchState{})

	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i, j := st.i, st.j

		for {
			if i == len(topic) && j == len(pattern) {
				return true
			}

			if j == len(pattern) {
				break
			}

			if pattern[j] == '*' {
				// try dropping the wildcard later, keep consuming now
				stack = append(stack, matchState{i: i, j: j + 1})
				if i < len(topic) {
					i++
					continue
				}
				break
			}

			if i < len(topic) && (pattern[j] == '?' || topic[i] == pattern[j]) {
				i++
				j++
				continue
			}

			break
		}
	}

	return false
}
