// Package models defines the data types shared by the asset store, the share
// link registry and the snapshot codec.
package models
