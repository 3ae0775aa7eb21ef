// Package utils provides named logrus loggers with a log4j-like console
// format and a key/value field logger shared by the other packages.
package utils
