// Package backend locates and instantiates the underlying agent engine.
//
// The engine exposes two entry points, a ConfigFactory and a
// ControllerFactory, bound in a Registry under "<package>/config" and
// "<package>/controller". A Resolver finds them using three strategies tried
// in strict order, first success wins:
//
//  1. installed: entry points linked into the binary (see Install), or an
//     engine executable named after the package on PATH
//  2. vendored: a cloned engine tree under <root>/external/<Engine>/<package>
//     (or <root>/external/<package>, or a directory listed in the search-path
//     environment variable), described by an engine.yaml manifest
//  3. aliased: modules registered under the engine's real, differently cased
//     name are re-registered under the expected package name
//
// When every strategy fails the Resolver returns a single *ResolutionError
// naming each attempt and its remediation. Resolution only ever adds
// registry and search-path entries, never replaces them, so it is idempotent
// and safe to run from several executors at once.
package backend
