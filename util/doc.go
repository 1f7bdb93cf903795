// Package util holds small parsing and formatting helpers shared by
// configuration, middleware and providers.
package util
