// Package history records controller events in InfluxDB.
//
// Points are handed to the non-blocking write API, so observer callbacks never
// wait for the database. Write errors are drained in the background and logged.
package history
