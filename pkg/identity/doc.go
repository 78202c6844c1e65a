// Package identity provides the thing id and registration code of a node.
//
// A thing id is the model name followed by eight hex digits, for example
// "SL-LE01-C980AFE". It is generated once, on the first start, and then
// kept in the commissioning record. The registration code is the secret the
// gateway operator enters to accept the thing; it is printed on the device
// and never changes.
package identity
