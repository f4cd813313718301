// Package security implements the alarm controller.
//
// Controller reconciles three independent inputs (arming changes, sensor
// edges and camera detection results) into one alarm status. Every status
// change goes through a single setter that persists it and informs the
// registered observers synchronously.
package security
