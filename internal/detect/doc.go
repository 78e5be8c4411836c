// Package detect guesses the language and transport of a source tree.
//
// Detection is deliberately shallow: conventional entry file names for
// Python projects, package.json dependencies for Node projects. Reports
// carry a confidence score so the dispatcher can prefer the strongest
// signal. Detection never executes project code.
package detect
