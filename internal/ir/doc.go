// Package ir defines the intermediate representation the emitter consumes.
//
// This package contains node types, their JSON wire form, content hashing
// and the symbol table. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Sum types are sealed interfaces (Decl, Stmt, Expr), one struct per kind
//   - The wire form carries a "kind" discriminator on every node
//   - All JSON tags use snake_case
//   - Hashes are computed over canonical JSON, never over input bytes
package ir
