// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing core model objects (calls,
// scripted sessions) and asserting behaviors. These helpers are
// intentionally minimal and avoid adding third-party dependencies beyond
// what the module already uses. They are not intended for production usage.
package testutil
