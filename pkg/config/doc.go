// Package config loads the YAML configuration shared by the capture
// console and the simulated capture service.
//
// A file only needs to name the values it changes:
//
//	session:
//	  app_id: "com.example.inventory"
//	  placeholder_label: "No scanner"
//	remote:
//	  address: "tcp://192.168.1.20:7420"
//	log:
//	  level: debug
//	  protocol_file: capture.cbor
//
// Missing values keep the defaults from Default. Environment variables
// prefixed with CAPTURE_ override the file; see Load.
package config
