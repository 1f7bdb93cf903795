// Package logger provides structured logging backed by zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with map-based fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Init(cfg, "whisper-api").WithComponent("api")
//	log.Info("upload accepted", logger.Fields("filename", name))
package logger
