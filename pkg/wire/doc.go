// Package wire parses the line-oriented command protocol spoken over the
// coldb socket into Statement values for pkg/api to dispatch.
package wire
