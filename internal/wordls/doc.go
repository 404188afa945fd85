// Package wordls is a small language engine built on the lsp package.
//
// It treats documents as sequences of identifiers. A name introduced by one
// of the keywords let, func or def is a definition; every other occurrence is
// a use. On top of that index it answers go-to-definition, references and
// document highlights, and reports a handful of lint diagnostics:
//
//   - duplicate definitions inside one document (Error)
//   - lines longer than the configured limit (Warning)
//   - trailing whitespace (Hint, tagged Unnecessary)
//   - marker words such as TODO (Information)
//   - uses of a definition whose line mentions "deprecated" (Hint, tagged Deprecated)
//
// Identifiers are compared after NFC normalization. Closed documents stay
// indexed, so definitions in them remain reachable.
package wordls
