// Package pdf turns proposals into downloadable PDF documents.
//
// The pipeline is render (liquid HTML template), convert (external headless
// browser service), archive (S3 copy plus a pdf_exports row), stream. The
// conversion engine itself lives outside this codebase; this package only
// talks to it over HTTP.
package pdf
