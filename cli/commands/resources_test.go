package commands

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/venice"
)

const modelsReply = `{"object":"list","type":"text","data":[
	{"id":"llama-3.3-70b","object":"model","type":"text","model_spec":{"availableContextTokens":65536,"capabilities":{"supportsFunctionCalling":true}}},
	{"id":"qwen3-4b","object":"model","type":"text","model_spec":{"availableContextTokens":32768,"capabilities":{"supportsReasoning":true}}}
]}`

func TestModelsCommand(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "text", r.URL.Query().Get("type"))
		fmt.Fprint(w, modelsReply)
	})

	require.NoError(t, h.run("", "models", "--type", "text"))
	out := h.stdout.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "llama-3.3-70b")
	assert.Contains(t, lines[1], "65536")
	assert.Contains(t, lines[1], "tool_calling")
	assert.Contains(t, lines[2], "reasoning")
}

func TestModelsCommandJSON(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, modelsReply)
	})

	require.NoError(t, h.run("", "--json", "models"))
	var models []venice.Model
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &models))
	require.Len(t, models, 2)
	assert.Equal(t, "qwen3-4b", models[1].ID)
}

func TestModelsMappingCommands(t *testing.T) {
	tests := []struct {
		sub  string
		path string
	}{
		{"traits", "/models/traits"},
		{"compat", "/models/compatibility_mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				fmt.Fprint(w, `{"object":"list","data":{"most_intelligent":"qwen3-235b","default":"llama-3.3-70b"}}`)
			})

			require.NoError(t, h.run("", "models", tt.sub))
			lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
			require.Len(t, lines, 2)
			assert.True(t, strings.HasPrefix(lines[0], "default"), "sorted output, got %q", lines[0])
			assert.Contains(t, lines[1], "qwen3-235b")
		})
	}
}

func TestImageCommand(t *testing.T) {
	img := []byte("\x89PNG fake image")
	var calls atomic.Int32
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image/generate", r.URL.Path)
		body := decodeRequest(t, r)
		assert.Equal(t, "hidream", body["model"])
		assert.Equal(t, "a red fox", body["prompt"])
		assert.Equal(t, "Anime", body["style_preset"])
		assert.Equal(t, "png", body["format"])
		assert.Equal(t, float64(512), body["width"])

		n := calls.Add(1)
		fmt.Fprintf(w, `{"id":"img-%d","images":[%q]}`, n, base64.StdEncoding.EncodeToString(img))
	})

	require.NoError(t, h.run("", "image", "--count", "3", "--style", "Anime", "--format", "png", "--width", "512", "a", "red", "fox"))
	assert.Equal(t, int32(3), calls.Load())

	files, err := filepath.Glob(filepath.Join(h.cfg.OutputDir, "venice-*.png"))
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.Equal(t, img, data)
	}
	assert.Equal(t, 3, strings.Count(h.stdout.String(), "Saved "))
}

func TestImageCommandOutFlagJSON(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"img","images":[%q]}`, base64.StdEncoding.EncodeToString([]byte("webp")))
	})
	out := filepath.Join(t.TempDir(), "renders")

	require.NoError(t, h.run("", "--json", "image", "--out", out, "lighthouse"))

	var saved []savedFile
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, out, filepath.Dir(saved[0].Path))
	assert.Equal(t, ".webp", filepath.Ext(saved[0].Path))
	assert.Equal(t, 4, saved[0].Bytes)
}

func TestImageCommandValidation(t *testing.T) {
	h := newHarness(t, nil)

	requireExitCode(t, h.run("", "image", "--format", "gif", "x"), ExitValidation)
	requireExitCode(t, h.run("", "image", "--count", "0", "x"), ExitValidation)
	requireExitCode(t, h.run("", "image"), ExitValidation)
}

func TestImageCommandFailure(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":"Insufficient balance"}`)
	})

	err := h.run("", "image", "--count", "2", "x")
	requireExitCode(t, err, ExitProvider)
	assert.Contains(t, h.stderr.String(), "Insufficient balance")

	files, _ := filepath.Glob(filepath.Join(h.cfg.OutputDir, "*"))
	assert.Empty(t, files)
}

func TestImageStylesCommand(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image/styles", r.URL.Path)
		fmt.Fprint(w, `{"object":"list","data":["3D Model","Anime"]}`)
	})

	require.NoError(t, h.run("", "image", "styles"))
	assert.Equal(t, "3D Model\nAnime\n", h.stdout.String())
}

func TestImageUpscaleCommand(t *testing.T) {
	upscaled := []byte("bigger png")
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image/upscale", r.URL.Path)
		body := decodeRequest(t, r)
		assert.Equal(t, float64(4), body["scale"])
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("small png")), body["image"])
		w.Header().Set("Content-Type", "image/png")
		w.Write(upscaled)
	})

	src := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(src, []byte("small png"), 0o644))

	require.NoError(t, h.run("", "image", "upscale", src, "--scale", "4"))

	files, err := filepath.Glob(filepath.Join(h.cfg.OutputDir, "photo-upscaled-*.png"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, upscaled, data)
}

func TestImageUpscaleMissingFile(t *testing.T) {
	h := newHarness(t, nil)
	requireExitCode(t, h.run("", "image", "upscale", filepath.Join(t.TempDir(), "nope.png")), ExitValidation)
}

func TestSpeechCommand(t *testing.T) {
	parts := [][]byte{[]byte("RIFF"), []byte("audio"), []byte("data")}
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		body := decodeRequest(t, r)
		assert.Equal(t, "tts-kokoro", body["model"])
		assert.Equal(t, "Hello there", body["input"])
		assert.Equal(t, "am_adam", body["voice"])
		assert.Equal(t, "wav", body["response_format"])
		assert.Equal(t, true, body["streaming"])

		w.Header().Set("Content-Type", "audio/wav")
		flusher := w.(http.Flusher)
		for _, p := range parts {
			w.Write(p)
			flusher.Flush()
		}
	})
	out := filepath.Join(t.TempDir(), "hello.wav")

	require.NoError(t, h.run("", "speech", "--voice", "am_adam", "--format", "wav", "--out", out, "Hello", "there"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "RIFFaudiodata", string(data))
	assert.Contains(t, h.stdout.String(), "(13 bytes)")
}

func TestSpeechCommandDefaultPath(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3"))
	})

	require.NoError(t, h.run("", "speech", "hi"))
	files, err := filepath.Glob(filepath.Join(h.cfg.OutputDir, "venice-*.mp3"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSpeechCommandFailureLeavesNoFile(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"unknown voice"}`)
	})
	out := filepath.Join(t.TempDir(), "x.mp3")

	err := h.run("", "speech", "--out", out, "hi")
	requireExitCode(t, err, ExitProvider)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

// embeddingHandler returns one vector per input whose single component is
// the input's length.
func embeddingHandler(t *testing.T, requests *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		requests.Add(1)
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-bge-m3", body.Model)

		data := make([]string, len(body.Input))
		for i, in := range body.Input {
			data[i] = fmt.Sprintf(`{"object":"embedding","index":%d,"embedding":[%d]}`, i, len(in))
		}
		fmt.Fprintf(w, `{"object":"list","model":%q,"data":[%s],"usage":{"prompt_tokens":%d,"total_tokens":%d}}`,
			body.Model, strings.Join(data, ","), len(body.Input), len(body.Input))
	}
}

func TestEmbedCommandArgs(t *testing.T) {
	var requests atomic.Int32
	h := newHarness(t, embeddingHandler(t, &requests))

	require.NoError(t, h.run("", "--json", "embed", "a", "bbb"))
	assert.Equal(t, int32(1), requests.Load())

	var resp core.EmbeddingResponse
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &resp))
	require.Len(t, resp.Vectors, 2)
	assert.Equal(t, []float32{3}, resp.Vectors[1].Vector)
	assert.Equal(t, 2, resp.Usage.TotalTokens)
}

func TestEmbedCommandStdinBatches(t *testing.T) {
	var requests atomic.Int32
	h := newHarness(t, embeddingHandler(t, &requests))

	require.NoError(t, h.run("a\nbb\n\nccc\ndddd\neeeee\n", "--json", "embed", "--batch", "2", "--concurrency", "2"))
	assert.Equal(t, int32(3), requests.Load())

	var resp core.EmbeddingResponse
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &resp))
	require.Len(t, resp.Vectors, 5)
	for i, v := range resp.Vectors {
		assert.Equal(t, i, v.Index)
		assert.Equal(t, []float32{float32(i + 1)}, v.Vector)
	}
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestEmbedCommandText(t *testing.T) {
	var requests atomic.Int32
	h := newHarness(t, embeddingHandler(t, &requests))

	require.NoError(t, h.run("", "embed", "hello"))
	assert.Contains(t, h.stdout.String(), "0\t1 dims\t[5.0000]")
	assert.Contains(t, h.stdout.String(), "model text-embedding-bge-m3, 1 tokens")
}

func TestEmbedCommandNoInput(t *testing.T) {
	h := newHarness(t, nil)
	err := h.run("\n\n", "embed")
	requireExitCode(t, err, ExitValidation)
	assert.Contains(t, h.stderr.String(), "no input")
}

func TestBillingCommand(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/billing/usage", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "VCU", q.Get("currency"))
		assert.Equal(t, "2025-06-01T00:00:00Z", q.Get("startDate"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "desc", q.Get("sortOrder"))
		fmt.Fprint(w, `{
			"data": [{"amount": 0.0123, "currency": "VCU", "sku": "llama-3.3-70b-llm-output-mtoken", "timestamp": "2025-06-02T10:00:00Z", "units": 0.002}],
			"pagination": {"limit": 10, "page": 1, "total": 1, "totalPages": 1}
		}`)
	})

	require.NoError(t, h.run("", "billing", "--currency", "vcu", "--start", "2025-06-01", "--limit", "10", "--sort", "desc"))
	out := h.stdout.String()
	assert.Contains(t, out, "llama-3.3-70b-llm-output-mtoken")
	assert.Contains(t, out, "0.0123")
	assert.Contains(t, out, "page 1/1, 1 entries")
}

func TestBillingCommandBadDate(t *testing.T) {
	h := newHarness(t, nil)
	err := h.run("", "billing", "--start", "06/01/2025")
	requireExitCode(t, err, ExitValidation)
	assert.Contains(t, h.stderr.String(), "YYYY-MM-DD")
}

func TestCharactersCommand(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/characters", r.URL.Path)
		fmt.Fprint(w, `{"object":"list","data":[
			{"slug":"alan-watts","name":"Alan Watts","description":"Philosopher and writer who popularized Eastern philosophy for a Western audience."}
		]}`)
	})

	require.NoError(t, h.run("", "characters"))
	out := h.stdout.String()
	assert.Contains(t, out, "alan-watts")
	assert.Contains(t, out, "...")

	require.NoError(t, h.run("", "--json", "characters"))
	var chars []venice.Character
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &chars))
	require.Len(t, chars, 1)
	assert.Equal(t, "Alan Watts", chars[0].Name)
}
