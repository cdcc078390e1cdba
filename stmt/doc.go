/*
Statement builder used by the "sequel" package. Tables are declared with a
`Schema` and bound to a `Dialect`; every query-producing method returns an
immutable `Node` that renders to SQL text and arguments via `Node.Render`.

Rendering is built on `Expr`, an interface for appending SQL text and
arguments. Text is produced in one canonical form, with double-quoted
identifiers and Postgres-style ordinal parameters, and converted to the target
dialect's placeholder style at the very end.
*/
package stmt
