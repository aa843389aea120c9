package core

import "context"

// AudioFormat is the encoding of synthesized speech.
type AudioFormat string

const (
	AudioFormatMP3  AudioFormat = "mp3"
	AudioFormatOpus AudioFormat = "opus"
	AudioFormatAAC  AudioFormat = "aac"
	AudioFormatFLAC AudioFormat = "flac"
	AudioFormatWAV  AudioFormat = "wav"
	AudioFormatPCM  AudioFormat = "pcm"
)

// Extension returns the file extension for the format, defaulting to mp3.
func (f AudioFormat) Extension() string {
	switch f {
	case AudioFormatOpus, AudioFormatAAC, AudioFormatFLAC, AudioFormatWAV, AudioFormatPCM:
		return "." + string(f)
	default:
		return ".mp3"
	}
}

// SpeechRequest asks a text-to-speech model to read Input aloud.
type SpeechRequest struct {
	Model          ModelID     `json:"model"`
	Input          string      `json:"input"`
	Voice          string      `json:"voice"`
	ResponseFormat AudioFormat `json:"response_format,omitempty"`
	Speed          *float32    `json:"speed,omitempty"`
	User           string      `json:"user,omitempty"`
}

// SpeechProvider is an optional interface for providers that synthesize speech.
// StreamSpeech delivers the audio body as it arrives; each chunk is a copy
// owned by the caller.
type SpeechProvider interface {
	CreateSpeech(ctx context.Context, req *SpeechRequest) ([]byte, error)
	StreamSpeech(ctx context.Context, req *SpeechRequest) (*Stream[[]byte], error)
}
