// Package mqtt connects the controller to an MQTT broker.
//
// Sensors report their state on <prefix>/sensors/<id>/state and cameras push
// frames on <prefix>/camera. Controller notifications are published as
// retained messages under <prefix>/events/.
package mqtt
