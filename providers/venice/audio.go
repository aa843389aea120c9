package venice

import (
	"context"
	"net/http"

	"github.com/petal-labs/venice/core"
)

// Speech defaults applied when the request leaves them empty.
const (
	DefaultVoice       = "af_sky"
	DefaultSpeechModel = ModelTTSKokoro
)

const (
	speechPath  = "audio/speech"
	acceptAudio = "audio/*"
)

// speechBody is core.SpeechRequest plus the streaming switch.
type speechBody struct {
	core.SpeechRequest
	Streaming bool `json:"streaming,omitempty"`
}

func speechDefaults(req *core.SpeechRequest, stream bool) speechBody {
	body := speechBody{SpeechRequest: *req, Streaming: stream}
	if body.Model == "" {
		body.Model = DefaultSpeechModel
	}
	if body.Voice == "" {
		body.Voice = DefaultVoice
	}
	if body.ResponseFormat == "" {
		body.ResponseFormat = core.AudioFormatMP3
	}
	return body
}

// CreateSpeech synthesizes speech and returns the whole audio body.
func (p *Venice) CreateSpeech(ctx context.Context, req *core.SpeechRequest) ([]byte, error) {
	if req.Input == "" {
		return nil, core.ErrNoInput
	}
	return p.doRaw(ctx, apiCall{
		method: http.MethodPost,
		path:   speechPath,
		body:   speechDefaults(req, false),
		accept: acceptAudio,
	})
}

// StreamSpeech synthesizes speech and returns the audio as it arrives.
// Each chunk is a copy owned by the caller; empty reads are skipped.
func (p *Venice) StreamSpeech(ctx context.Context, req *core.SpeechRequest) (*core.Stream[[]byte], error) {
	src, err := p.openSpeechStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return core.NewStream[[]byte](src, core.BytesDecoder{}, p.owner), nil
}

// StreamSpeechAsync is StreamSpeech with a cooperative stream.
func (p *Venice) StreamSpeechAsync(ctx context.Context, req *core.SpeechRequest) (*core.AsyncStream[[]byte], error) {
	src, err := p.openSpeechStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return core.NewAsyncStream[[]byte](src, core.BytesDecoder{}, p.owner), nil
}

func (p *Venice) openSpeechStream(ctx context.Context, req *core.SpeechRequest) (core.Source, error) {
	if req.Input == "" {
		return nil, core.ErrNoInput
	}
	resp, err := p.send(ctx, apiCall{
		method: http.MethodPost,
		path:   speechPath,
		body:   speechDefaults(req, true),
		accept: acceptAudio,
	})
	if err != nil {
		return nil, err
	}
	return core.NewSegmentSource(resp.Body, core.DefaultSegmentSize), nil
}
