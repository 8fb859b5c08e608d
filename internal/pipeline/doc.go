// Package pipeline reshapes registry record sequences.
//
// Every function here is a pure transform: no network, no chain, no file
// access. Reading and writing the record files is done by infra/files.
package pipeline
