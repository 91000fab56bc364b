//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of the
// credential store. It is designed for deployment on Google Cloud Platform
// and supports multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
// The package uses a single kind:
//   - User: user accounts with credential and reset-challenge state
//
// # Namespacing
//
// Pass a namespace when creating the store to isolate data between tenants:
//
//	store := gae.NewUserStore(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	store := gae.NewUserStore(client, "") // default namespace
package gae
