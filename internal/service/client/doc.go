// Package client implements the catpoint-ctl operations.
//
// Run loads the settings, identifies the caller and connects to the controller,
// then executes one Action. Actions print a short human-readable report.
package client
