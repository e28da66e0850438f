// Package ingest reads raw milking session exports into frames.
//
// An export is a CSV or XLSX table whose first row is a group header and
// whose second row holds the column names. The quadrant columns DI, DD, TI
// and TD repeat once per measurement family; the reader disambiguates the
// repeats and renames them to their family names before building the frame.
// Each file holds the sessions of one animal, identified by the first digit
// run of the file name.
package ingest
