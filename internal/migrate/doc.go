// Package migrate implements the tenant-to-tenant migration workflow that
// copies a process definition together with its referenced assets, rewrites
// version references in the document, and activates the recreated definition
// on the destination tenant.
package migrate
