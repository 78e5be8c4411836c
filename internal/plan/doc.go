// Package plan emits and loads install plans.
//
// A plan is a small JSON document that points at a bundle archive by URL,
// pins it to a content digest, and carries registration hints for a
// registry. Plans let an installer fetch a bundle it has never seen while
// still refusing tampered content.
package plan
