package scanning

import (
	"strings"
)

// transcribePrompt is shared by all LLM providers. The receipt is parsed
// locally, so the model only has to read.
const transcribePrompt = `You are reading a photographed receipt or invoice. It may be printed in Traditional Chinese, Japanese, English or a mix of them.

Transcribe every line of text exactly as printed, from top to bottom:
- Keep one printed line per output line
- Keep numbers, currency symbols, dates and punctuation exactly as they appear
- Do not translate, summarise, correct or reorder anything
- Do not add labels, explanations or markdown

Return only the transcribed text.`

// normalizeTranscript cleans a model transcription into raw receipt text.
func normalizeTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```plaintext")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", ErrNoText
	}

	return strings.Join(lines, "\n"), nil
}
