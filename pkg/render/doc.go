// Package render turns engine output into display strings. It binds a
// Translator and locale into a LookupFunc, projects pages into their
// localized form and folds validation failures into the single aggregated
// notification a page reports when it cannot advance.
package render
