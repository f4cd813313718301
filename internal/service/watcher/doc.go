// Package watcher polls the controller and reports status changes.
package watcher
