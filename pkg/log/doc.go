/*
Package log provides structured logging for coldb, built on zerolog.

Init configures the process-global Logger once at startup (JSON in
production, a console writer otherwise). Subsystems get a child logger via
WithComponent, e.g. WithComponent("storage"), so every line carries a
"component" field alongside the usual level, message, and timestamp.
*/
package log
