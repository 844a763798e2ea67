// Package sim provides in-memory devices for running the runtime on a
// desktop. Each device implements the matching capability interface of
// package device and exposes setters so tests and the simulator binary can
// drive it (insert a card, drain the battery, press a key).
package sim
