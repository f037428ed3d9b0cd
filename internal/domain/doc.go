// Package domain holds the data model shared by the indicator, fundamental,
// sentiment and screening engines. Everything here is plain data: the engines
// own no state between invocations and results belong to the caller.
package domain
