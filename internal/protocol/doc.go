// Package protocol owns the host command wire contract.
//
// Every message is one JSON object on its own line. The DataType field
// selects the command kind; the remaining fields depend on the kind.
// On connection the device sends one unsolicited line holding the full
// credential list as a JSON array.
package protocol
