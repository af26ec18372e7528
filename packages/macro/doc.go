// Package macro expands build templates.
//
// A template may reference build macros ($BUILD_NUMBER, ${ENV,var="HOME"},
// ${FILE,path="version.txt"}), build variables ($NAME, ${NAME}) and builtin
// function calls ({{uuid()}}). ExpandCSV applies an Expander to every field of a
// comma-separated line.
package macro
