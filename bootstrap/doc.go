// Package bootstrap runs the service lifecycle: validate config, start
// components in registration order, print a startup summary, wait for
// SIGINT/SIGTERM and stop components in reverse order.
package bootstrap
