package content

import (
	"fmt"
	"strings"
)

const imageStyle = "single isolated object, no background, white background, simple vector illustration, flat design, minimal details"

// WordPrompt asks a text model for a new short Ukrainian phrase split into
// syllables. The answer must be a JSON object with cleanWord, syllables and
// imagePrompt.
func WordPrompt(excluded []string) string {
	return fmt.Sprintf(`Придумай нову коротку фразу для дитини (4-6 років), яка вчиться читати.
Фраза складається з 2 або 3 простих слів, кожне щонайменше з 2 складів. Не повертай одне слово.
Теми: тварини, природа, іграшки, їжа, родина, казкові герої.

ВАЖЛИВО: не використовуй ці фрази (вони вже були): %s.
Фраза пишеться з великої літери лише на початку (Sentence case).

Поверни JSON об'єкт:
1. "cleanWord": фраза без розділових знаків (наприклад "Мила кішка" або "Велика черепаха").
2. "syllables": та сама фраза, розбита на склади дефісами (наприклад "Ми-ла кі-шка" або "Ве-ли-ка че-ре-па-ха").
3. "imagePrompt": опис для генерації зображення англійською: single isolated object representing the phrase, simple vector icon, white background, minimalist, flat style.`,
		strings.Join(excluded, ", "))
}

// ImagePrompt adds the house illustration style to a generated image description.
func ImagePrompt(prompt string) string {
	return strings.TrimSpace(prompt) + ", " + imageStyle
}

// JudgePrompt asks an audio-capable model whether a recording reads target.
func JudgePrompt(target string) string {
	return fmt.Sprintf(`A child is trying to read the Ukrainian phrase: "%s".
Listen to the audio. Did they say it correctly?
Ignore minor stuttering, pauses between syllables, or childish accent.
Return JSON: { "correct": true } or { "correct": false }.`, target)
}
