// Package model provides the data structures shared by the pipeline package and its options.
// It defines the step descriptions, the typed step outputs and the hooks a pipeline option
// can implement to observe the steps.
package model
