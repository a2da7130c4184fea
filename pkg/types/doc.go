// Package types defines the fixture record model, the table catalog, the
// association hint interface and the standard errors shared by the
// fixture loader, the reference resolver and the database store.
package types
