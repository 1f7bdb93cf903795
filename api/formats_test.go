package api

import (
	"net/http"
	"testing"

	apperrors "github.com/kbukum/whisper-api/errors"
)

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"speech.wav":           ".wav",
		"Speech.MP3":           ".mp3",
		"voice.memo.m4a":       ".m4a",
		"track.FLAC":           ".flac",
		"notes.txt":            ".txt",
		"noextension":          "",
		".wav":                 "",
		"..flac":               "",
		"":                     "",
		"dir/clip.wav":         ".wav",
		`C:\Users\me\clip.mp3`: ".mp3",
		"archive.wav.zip":      ".zip",
	}
	for in, want := range tests {
		if got := Extension(in); got != want {
			t.Errorf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".mp3", ".wav", ".m4a", ".flac"} {
		if !Supported(ext) {
			t.Errorf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{".ogg", ".MP3", "", "wav"} {
		if Supported(ext) {
			t.Errorf("expected %q to be rejected", ext)
		}
	}
}

func TestOutcomeStatus(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    int
	}{
		{"ok", succeeded(&TranscriptionResult{}), http.StatusOK},
		{"unsupported", rejected(apperrors.UnsupportedFormat(".txt", AcceptedExtensions)), http.StatusBadRequest},
		{"too large", rejected(apperrors.PayloadTooLarge(10)), http.StatusRequestEntityTooLarge},
		{"engine", failed(apperrors.TranscriptionFailed(nil)), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.outcome.Status(); got != tc.want {
				t.Errorf("Status() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOutcomeKindString(t *testing.T) {
	if OutcomeOK.String() != "ok" || OutcomeClientError.String() != "client_error" || OutcomeServerError.String() != "server_error" {
		t.Error("unexpected outcome kind names")
	}
}
