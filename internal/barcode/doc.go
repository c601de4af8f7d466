// Package barcode decodes machine-readable codes from raw frame buffers.
//
// The Decoder interface is the capability the decode worker depends on. The
// default implementation is backed by gozxing and searches for QR codes unless
// other symbologies are configured.
package barcode
