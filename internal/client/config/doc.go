// Package config loads settings for the PennyPlan CLI: defaults, then an
// optional JSON file (-c/-config or CONFIG), then PENNYPLAN_* environment
// variables, then the -a and -w flags.
package config
