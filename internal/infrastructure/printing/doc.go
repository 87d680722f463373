// Package printing renders the printable artifacts of a document. Only the
// QR image is produced here; PDF layout is left to the clients.
package printing
