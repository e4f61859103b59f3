// Package entities holds the plain data types shared across the plugin
// host: binary metadata, execution configuration and results, and
// diagnostic trace events. None of these types carry behavior beyond
// simple constructors and JSON tags.
package entities
