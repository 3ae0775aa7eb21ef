// Package database connects repositories to SQL backends through Bun: it
// manages connections and configuration, renders rows and restrictions as
// SQL for the mysql, pg and sqlite dialects, executes them with a result
// cache and classifies driver errors.
package database
