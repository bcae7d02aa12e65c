// Package cli implements the sharevault command line: asset, link, embed,
// open, backup, settings and serve commands built with cobra on top of
// the services package.
package cli
