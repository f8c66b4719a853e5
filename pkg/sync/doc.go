// Package sync reconciles the FMI static STAC catalogs with a GeoServer
// instance. For every published collection it walks the source catalog,
// resolves the linked items, and pushes the items the target does not
// hold yet through the OSEO REST API.
//
// Everything runs on the calling goroutine. The context is only used for
// cancellation, which is also the only way out of the item retry loop.
package sync
