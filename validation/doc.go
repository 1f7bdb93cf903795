// Package validation validates configuration structs with go-playground
// validator tags and reports failures as *errors.AppError values whose field
// names match the YAML/env keys.
package validation
