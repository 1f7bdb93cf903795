// Package api implements the transcription endpoint.
//
// POST /transcribe/ takes a multipart field "file" with an .mp3, .wav, .m4a
// or .flac name. The upload is streamed into a scratch file, passed to the
// engine and removed before the response is written:
//
//	200 {"filename": "...", "transcription": "...", "language": "en"}
//	400 {"detail": "Unsupported file format. Use MP3, WAV, M4A, or FLAC.", "error": {...}}
//	500 {"detail": "Transcription failed: <details>", "error": {...}}
package api
