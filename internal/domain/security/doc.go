// Package security contains core domain types of the home-security controller.
//
// It defines the alarm and arming status enums, the Sensor entity with its
// opaque identifier, the persisted Snapshot and the Actor who issued a command.
// Clone helpers avoid leaking internal references across package boundaries.
package security
