// Package config loads service configuration.
//
// Values come from config.yml (found under cmd/<service>/, ./config/ or the
// working directory), an optional .env file and the process environment, in
// increasing precedence. Environment keys are the upper-cased config paths
// with dots replaced by underscores:
//
//	SERVER_PORT=9000
//	TRANSCRIPTION_MODEL=large-v3
//	TRANSCRIPTION_DEVICE=cpu
//
// AppConfig gathers the server, transcription and observability sections;
// Load applies defaults and validates before returning it.
package config
