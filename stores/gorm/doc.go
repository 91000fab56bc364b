//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-based implementation of the credential store.
// It works with any database GORM supports (PostgreSQL, MySQL, SQLite) and
// is the store to use for production relational deployments.
//
// # Database Schema
//
// The package auto-migrates a single table:
//   - users: accounts with credential and reset-challenge state
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	gormstore.AutoMigrate(db)
//	store := gormstore.NewUserStore(db)
package gorm
