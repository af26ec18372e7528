// Package builtin provides the functions available in {{name(args)}} template calls,
// such as uuid(), now(), base64(x) or isInteger(x).
package builtin
