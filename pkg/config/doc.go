// Package config loads LiveStream channel definitions from YAML.
//
// A file names the producer and consumer cadences, the capacity hints used
// to size each shared block, and the packages the engine publishes, grouped
// by entity:
//
//	tick_interval: 10ms
//	poll_interval: 16ms
//	placeholder: zero
//	capacity:
//	  array_hint: 64
//	  bytes_hint: 64
//	  headroom: 1.5
//	entities:
//	  - id: 6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b
//	    name: master-bus
//	    slots:
//	      - {slot: 0, type: float, name: peak}
//	      - {slot: 1, type: float_array, name: spectrum}
package config
