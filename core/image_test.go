package core

import "testing"

func TestImageFormatValidation(t *testing.T) {
	tests := []struct {
		format ImageFormat
		valid  bool
		ext    string
	}{
		{ImageFormatPNG, true, ".png"},
		{ImageFormatJPEG, true, ".jpg"},
		{ImageFormatWebP, true, ".webp"},
		{ImageFormat("gif"), false, ".webp"},
		{ImageFormat(""), false, ".webp"},
	}

	for _, tt := range tests {
		if got := tt.format.IsValid(); got != tt.valid {
			t.Errorf("ImageFormat(%q).IsValid() = %v, want %v", tt.format, got, tt.valid)
		}
		if got := tt.format.Extension(); got != tt.ext {
			t.Errorf("ImageFormat(%q).Extension() = %q, want %q", tt.format, got, tt.ext)
		}
	}
}

func TestImageDataGetBytes(t *testing.T) {
	data, err := ImageData{B64JSON: "aGVsbG8="}.GetBytes()
	if err != nil || string(data) != "hello" {
		t.Errorf("GetBytes() = %q, %v, want hello", data, err)
	}

	data, err = ImageData{URL: "https://example.com/a.png"}.GetBytes()
	if err != nil || data != nil {
		t.Errorf("GetBytes() for URL image = %q, %v, want nil", data, err)
	}

	if _, err := (ImageData{B64JSON: "%%%"}).GetBytes(); err == nil {
		t.Error("GetBytes() with invalid base64 should fail")
	}
}

func TestAudioFormatExtension(t *testing.T) {
	tests := map[AudioFormat]string{
		AudioFormatMP3:  ".mp3",
		AudioFormatOpus: ".opus",
		AudioFormatWAV:  ".wav",
		AudioFormatPCM:  ".pcm",
		AudioFormat(""): ".mp3",
	}
	for f, want := range tests {
		if got := f.Extension(); got != want {
			t.Errorf("AudioFormat(%q).Extension() = %q, want %q", f, got, want)
		}
	}
}
