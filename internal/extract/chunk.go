package extract

import "strings"

// Chunks splits content into pieces of at most size words, breaking on
// paragraph boundaries where possible. Oversized paragraphs are split on
// word boundaries. Word count approximates the token budget of the
// extraction model closely enough for prompt sizing.
func Chunks(content string, size int) []string {
	if size <= 0 {
		size = 700
	}

	var chunks []string
	var current []string
	count := 0

	flush := func() {
		if count > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			count = 0
		}
	}

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		words := strings.Fields(para)
		if len(words) > size {
			flush()
			for start := 0; start < len(words); start += size {
				end := start + size
				if end > len(words) {
					end = len(words)
				}
				chunks = append(chunks, strings.Join(words[start:end], " "))
			}
			continue
		}

		if count+len(words) > size {
			flush()
		}
		current = append(current, para)
		count += len(words)
	}
	flush()

	return chunks
}
