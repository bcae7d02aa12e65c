// Package httpapi exposes the asset store, share links and settings over a
// local JSON API for an editor front end running on the same machine.
package httpapi
