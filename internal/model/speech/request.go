package speech

// ASRRequest is one complete recording to transcribe.
type ASRRequest struct {
	SessionID string `json:"sessionId"`
	Audio     []byte `json:"-"`
	Format    string `json:"format"` // wav, ogg, mp3, pcm
	Codec     string `json:"codec"`  // raw or opus
	Rate      int    `json:"rate"`
	Language  string `json:"language"`
}

// TTSRequest is one text to synthesize.
type TTSRequest struct {
	SessionID  string  `json:"sessionId"`
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	Speed      float32 `json:"speed"`  // 0.5-2.0
	Volume     float32 `json:"volume"` // 0.5-2.0
	Format     string  `json:"format"` // mp3 or pcm
	SampleRate int     `json:"sampleRate"`
}
