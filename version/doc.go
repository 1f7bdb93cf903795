// Package version reports the build version of the whisper-api binary.
//
//	go build -ldflags "-X github.com/kbukum/whisper-api/version.Version=1.2.0" ./cmd/whisper-api
package version
