// Package mqtt provides the optional broker connection for camcore.
//
// camcore is pull-first: the embedded poller reads state over HTTP. The MQTT
// client exists purely as a publish-side mirror: every accepted state write
// is published retained to camcore/state/camera, so broker-attached consumers
// (dashboards, recorders) can observe the cell without polling.
//
// The client wraps eclipse/paho.mqtt.golang with auto-reconnect; a missing
// broker never blocks or fails an HTTP request.
package mqtt
