// Package service implements the operation-dispatch layer between the wire
// API and the coordinator. Every mutating request runs the same pipeline:
// extract the wait timeout, convert to an internal operation, submit, and
// wrap the result with the coordinator call's elapsed seconds. Read requests
// forward directly and get the same timing treatment. Coordinator failures
// map onto grpc status codes through one fixed table.
package service
