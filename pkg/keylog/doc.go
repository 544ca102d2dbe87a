// Package keylog records key transitions from a keyboard event source into an
// append-only journal. Events flow from the source through a bounded queue to a
// single writer, so journal I/O never blocks or crashes the capture loop.
//
// On darwin the default source is a listen-only Quartz event tap, which requires
// the user to grant Accessibility trust to the hosting terminal. Other platforms
// have no default source.
package keylog
