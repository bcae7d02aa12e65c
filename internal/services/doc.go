// Package services implements the sharevault application logic on top of
// the repositories: the content-addressed asset store, the share link
// registry, share link orchestration, persisted settings and backups.
//
// Collaborators are passed in explicitly at construction; nothing here
// reads package-level state.
package services
