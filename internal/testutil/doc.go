// Package testutil contains helper builders and mocks used across tests to
// reduce boilerplate when constructing backend handles, controllers and
// tool fixtures. They are not intended for production usage.
package testutil
