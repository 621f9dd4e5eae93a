// Package influxdb provides optional time-series recording of camera state
// transitions.
//
// Each accepted write (target or actual) becomes one point in the
// camera_state measurement. Recording is fire-and-forget: the write API is
// non-blocking and errors surface only through the error callback, never on
// the HTTP request path.
//
// Disabled by default; enable via the influxdb section of config.yaml.
package influxdb
